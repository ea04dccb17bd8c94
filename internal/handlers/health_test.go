package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/waorder/internal/database"
)

type failingPingStore struct {
	*database.MemoryStore
}

func (failingPingStore) Ping(context.Context) error { return errors.New("connection refused") }

func healthStatus(t *testing.T, h *HealthHandler) map[string]any {
	t.Helper()
	app := fiber.New()
	app.Get("/health", h.Health)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthHandler(t *testing.T) {
	healthy := healthStatus(t, NewHealthHandler(database.NewMemoryStore(), "test", true, false))
	assert.Equal(t, "healthy", healthy["status"])
	assert.Equal(t, "ok", healthy["checks"].(map[string]any)["database"])

	noCreds := healthStatus(t, NewHealthHandler(database.NewMemoryStore(), "test", false, false))
	assert.Equal(t, "degraded", noCreds["status"])
	assert.Equal(t, "missing credentials", noCreds["checks"].(map[string]any)["whatsapp_config"])

	fallback := healthStatus(t, NewHealthHandler(database.NewMemoryStore(), "test", true, true))
	assert.Equal(t, "degraded", fallback["status"])

	dbDown := healthStatus(t, NewHealthHandler(failingPingStore{database.NewMemoryStore()}, "test", true, false))
	assert.Equal(t, "degraded", dbDown["status"])
	assert.Contains(t, dbDown["checks"].(map[string]any)["database"], "connection refused")
}

func TestHealthHandler_Root(t *testing.T) {
	app := fiber.New()
	app.Get("/", NewHealthHandler(database.NewMemoryStore(), "test", true, false).Root)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "running", out["status"])
	assert.Equal(t, Version, out["version"])
}
