package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/example/waorder/internal/bot"
	"github.com/example/waorder/internal/config"
	"github.com/example/waorder/internal/database"
	"github.com/example/waorder/internal/handlers"
	"github.com/example/waorder/internal/middleware"
	"github.com/example/waorder/internal/services"
)

// Deps are the long-lived components the HTTP layer serves.
type Deps struct {
	Config     *config.Config
	Store      database.Store
	InMemory   bool
	Records    *services.RecordCache
	Ledger     *services.Ledger
	Background *services.Background
	Router     *bot.Router
	Log        *slog.Logger
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, d Deps) {
	cfg := d.Config

	healthHandler := handlers.NewHealthHandler(d.Store, cfg.Environment, cfg.WhatsAppConfigured(), d.InMemory)
	webhookHandler := handlers.NewWebhookHandler(d.Router, cfg.WhatsAppVerifyToken, cfg.WebhookTimeout, d.Log)
	adminHandler := handlers.NewAdminHandler(d.Store, d.Records, d.Ledger, d.Background, handlers.AdminConfig{
		Username:     cfg.AdminUsername,
		PasswordHash: cfg.AdminPasswordHash,
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     cfg.TokenTTL(),
	}, d.Log)

	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.Health)

	app.Get("/webhook/whatsapp", webhookHandler.Verify)
	app.Post("/webhook/whatsapp", middleware.WebhookSignature(cfg.WhatsAppAppSecret, d.Log), webhookHandler.Receive)

	auth := middleware.AdminAuth(cfg.JWTSecret)

	admin := app.Group("/admin")
	admin.Post("/login", adminHandler.Login)
	admin.Get("/stats", auth, adminHandler.Stats)
	admin.Post("/cache/clear", auth, adminHandler.ClearCache)
	admin.Get("/orders", auth, adminHandler.ListOrders)
	admin.Get("/orders/:number", auth, adminHandler.GetOrder)
	admin.Patch("/orders/:number/status", auth, adminHandler.UpdateOrderStatus)
	admin.Post("/users/:wa_id/block", auth, adminHandler.BlockUser)
	admin.Post("/users/:wa_id/unblock", auth, adminHandler.UnblockUser)
}
