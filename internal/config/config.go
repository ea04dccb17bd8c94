package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration values.
type Config struct {
	AppPort     string `env:"APP_PORT" env-default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	Environment string `env:"ENVIRONMENT" env-default:"production"`
	Debug       bool   `env:"DEBUG" env-default:"false"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat   string `env:"LOG_FORMAT" env-default:"json"`

	WhatsAppAccessToken   string `env:"WHATSAPP_ACCESS_TOKEN"`
	WhatsAppPhoneNumberID string `env:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsAppVerifyToken   string `env:"WHATSAPP_VERIFY_TOKEN" env-default:"cpc"`
	WhatsAppAppSecret     string `env:"WHATSAPP_APP_SECRET"`
	WhatsAppCatalogID     string `env:"WHATSAPP_CATALOG_ID"`
	WhatsAppBaseURL       string `env:"WHATSAPP_BASE_URL" env-default:"https://graph.facebook.com/v21.0"`

	CacheTTLSeconds        int           `env:"CACHE_TTL_SECONDS" env-default:"300"`
	RateLimitRequests      int           `env:"RATE_LIMIT_REQUESTS" env-default:"30"`
	RateLimitWindowSeconds int           `env:"RATE_LIMIT_WINDOW_SECONDS" env-default:"60"`
	RateLimitSweepInterval time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL" env-default:"1h"`
	PendingOrderCacheTTL   time.Duration `env:"PENDING_ORDER_CACHE_TTL" env-default:"2m"`
	TaxRateRaw             string        `env:"TAX_RATE" env-default:"0"`
	Currency               string        `env:"CURRENCY" env-default:"PKR"`
	CurrencySymbol         string        `env:"CURRENCY_SYMBOL" env-default:"Rs"`
	EnableMessageLogging   bool          `env:"ENABLE_MESSAGE_LOGGING" env-default:"false"`
	SnowflakeNode          int64         `env:"SNOWFLAKE_NODE" env-default:"1"`
	ContactInfo            string        `env:"CONTACT_INFO" env-default:"Support: +92-XXX-XXXXXXX | Email: support@yourbrand.com | Hours: 10am-10pm"`
	PaymentInstructions    string        `env:"PAYMENT_INSTRUCTIONS" env-default:"Use your order number as the transfer reference."`

	BackgroundWorkers     int           `env:"BACKGROUND_WORKERS" env-default:"4"`
	BackgroundQueueSize   int           `env:"BACKGROUND_QUEUE_SIZE" env-default:"1024"`
	BackgroundTaskTimeout time.Duration `env:"BACKGROUND_TASK_TIMEOUT" env-default:"10s"`
	WebhookTimeout        time.Duration `env:"WEBHOOK_TIMEOUT" env-default:"30s"`

	JWTSecret         string `env:"JWT_SECRET"`
	TokenTTLHours     int    `env:"JWT_TTL_HOURS" env-default:"24"`
	AdminUsername     string `env:"ADMIN_USERNAME" env-default:"admin"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	TelegramBotToken  string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAdminChat string `env:"TELEGRAM_ADMIN_CHAT_ID"`
}

// Load reads the optional .env file and the environment, then validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Validate rejects values the core cannot operate with.
func (c *Config) Validate() error {
	if c.AppPort == "" {
		return fmt.Errorf("APP_PORT must be set")
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be > 0 (got %d)", c.RateLimitRequests)
	}
	if c.RateLimitWindowSeconds <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be > 0 (got %d)", c.RateLimitWindowSeconds)
	}
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be > 0 (got %d)", c.CacheTTLSeconds)
	}
	if c.BackgroundWorkers <= 0 {
		return fmt.Errorf("BACKGROUND_WORKERS must be > 0 (got %d)", c.BackgroundWorkers)
	}
	if c.BackgroundQueueSize <= 0 {
		return fmt.Errorf("BACKGROUND_QUEUE_SIZE must be > 0 (got %d)", c.BackgroundQueueSize)
	}

	rate, err := decimal.NewFromString(c.TaxRateRaw)
	if err != nil {
		return fmt.Errorf("TAX_RATE %q: %w", c.TaxRateRaw, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("TAX_RATE must be between 0 and 1 (got %s)", rate)
	}

	return nil
}

// TaxRate is the multiplier applied to an order subtotal. Zero when unparsable;
// Validate reports that case at startup.
func (c *Config) TaxRate() decimal.Decimal {
	rate, err := decimal.NewFromString(c.TaxRateRaw)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

// Missing lists the credentials that are not configured. The server still boots
// without them, in degraded mode.
func (c *Config) Missing() []string {
	var missing []string
	if c.WhatsAppAccessToken == "" {
		missing = append(missing, "WHATSAPP_ACCESS_TOKEN")
	}
	if c.WhatsAppPhoneNumberID == "" {
		missing = append(missing, "WHATSAPP_PHONE_NUMBER_ID")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	return missing
}

// CacheTTL is the default lifetime of a cache entry.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RateLimitWindow is the size of one fixed rate-limit window.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// TokenTTL is the lifetime of an admin token.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// WhatsAppConfigured reports whether outbound messaging can work.
func (c *Config) WhatsAppConfigured() bool {
	return c.WhatsAppAccessToken != "" && c.WhatsAppPhoneNumberID != ""
}
