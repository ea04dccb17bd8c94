package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/waorder/internal/bot"
)

// InboundHandler processes one normalised inbound message.
type InboundHandler interface {
	Handle(ctx context.Context, in bot.Inbound) bot.Status
}

// WebhookHandler serves the WhatsApp webhook.
type WebhookHandler struct {
	router      InboundHandler
	verifyToken string
	timeout     time.Duration
	log         *slog.Logger
}

// NewWebhookHandler constructs WebhookHandler. Each delivery is handled within timeout.
func NewWebhookHandler(router InboundHandler, verifyToken string, timeout time.Duration, log *slog.Logger) *WebhookHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookHandler{router: router, verifyToken: verifyToken, timeout: timeout, log: log}
}

// Verify answers Meta's subscription handshake.
func (h *WebhookHandler) Verify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken && challenge != "" {
		h.log.Info("webhook verified successfully")
		return c.Status(fiber.StatusOK).SendString(challenge)
	}

	h.log.Warn("webhook verification failed", slog.String("mode", mode))
	return c.Status(fiber.StatusForbidden).SendString("Verification failed")
}

// Receive handles a message delivery. Every outcome other than malformed JSON is
// acknowledged with 200 so the platform does not retry.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	in, ok, err := parseInbound(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "invalid_json"})
	}
	if !ok {
		return c.JSON(fiber.Map{"status": bot.StatusIgnored})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	status := h.router.Handle(ctx, in)
	return c.JSON(fiber.Map{"status": status})
}
