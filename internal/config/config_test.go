package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		AppPort:                "8080",
		CacheTTLSeconds:        300,
		RateLimitRequests:      30,
		RateLimitWindowSeconds: 60,
		BackgroundWorkers:      2,
		BackgroundQueueSize:    16,
		TaxRateRaw:             "0",
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TAX_RATE", "0.16")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.Equal(t, 60, cfg.RateLimitWindowSeconds)
	assert.Equal(t, "cpc", cfg.WhatsAppVerifyToken)
	assert.True(t, cfg.TaxRate().Equal(decimal.RequireFromString("0.16")))
}

func TestValidate(t *testing.T) {
	t.Run("parses tax rate", func(t *testing.T) {
		cfg := validConfig()
		cfg.TaxRateRaw = "0.05"
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "0.05", cfg.TaxRate().String())
	})

	t.Run("rejects negative tax rate", func(t *testing.T) {
		cfg := validConfig()
		cfg.TaxRateRaw = "-0.1"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects tax rate above one", func(t *testing.T) {
		cfg := validConfig()
		cfg.TaxRateRaw = "16"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects garbage tax rate", func(t *testing.T) {
		cfg := validConfig()
		cfg.TaxRateRaw = "ten percent"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects zero rate limit", func(t *testing.T) {
		cfg := validConfig()
		cfg.RateLimitRequests = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestMissing(t *testing.T) {
	cfg := validConfig()
	assert.ElementsMatch(t,
		[]string{"WHATSAPP_ACCESS_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "DATABASE_URL"},
		cfg.Missing())

	cfg.WhatsAppAccessToken = "token"
	cfg.WhatsAppPhoneNumberID = "123"
	cfg.DatabaseURL = "postgres://localhost/bot"
	assert.Empty(t, cfg.Missing())
	assert.True(t, cfg.WhatsAppConfigured())
}
