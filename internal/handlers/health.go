package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/waorder/internal/database"
)

// Version is reported by the info and health endpoints.
const Version = "2.1.0"

// HealthHandler reports liveness and dependency status.
type HealthHandler struct {
	store       database.Store
	environment string
	whatsappOK  bool
	inMemory    bool
	now         func() time.Time
}

// NewHealthHandler constructs HealthHandler. inMemory marks the in-process
// fallback store, which always counts as degraded.
func NewHealthHandler(store database.Store, environment string, whatsappOK, inMemory bool) *HealthHandler {
	return &HealthHandler{
		store:       store,
		environment: environment,
		whatsappOK:  whatsappOK,
		inMemory:    inMemory,
		now:         time.Now,
	}
}

// Root describes the service.
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":    "WhatsApp Ordering Bot",
		"version": Version,
		"status":  "running",
	})
}

// Health checks the database and WhatsApp credentials. It always answers 200.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := "healthy"
	checks := fiber.Map{}

	switch {
	case h.inMemory:
		checks["database"] = "unavailable: using in-memory store"
		status = "degraded"
	default:
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "degraded"
		} else {
			checks["database"] = "ok"
		}
	}

	if h.whatsappOK {
		checks["whatsapp_config"] = "ok"
	} else {
		checks["whatsapp_config"] = "missing credentials"
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":      status,
		"timestamp":   h.now().UTC().Format(time.RFC3339),
		"environment": h.environment,
		"version":     Version,
		"checks":      checks,
	})
}
