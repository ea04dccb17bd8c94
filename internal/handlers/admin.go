package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/waorder/internal/database"
	"github.com/example/waorder/internal/models"
	"github.com/example/waorder/internal/services"
	"github.com/example/waorder/internal/utils"
)

// AdminConfig holds admin credentials and token settings.
type AdminConfig struct {
	Username     string
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration
}

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	store   database.Store
	records *services.RecordCache
	ledger  *services.Ledger
	bg      *services.Background
	cfg     AdminConfig
	now     func() time.Time
	log     *slog.Logger
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(store database.Store, records *services.RecordCache, ledger *services.Ledger, bg *services.Background, cfg AdminConfig, log *slog.Logger) *AdminHandler {
	return &AdminHandler{
		store:   store,
		records: records,
		ledger:  ledger,
		bg:      bg,
		cfg:     cfg,
		now:     time.Now,
		log:     log,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges admin credentials for a bearer token.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	if h.cfg.PasswordHash == "" || h.cfg.JWTSecret == "" {
		return fiber.NewError(fiber.StatusServiceUnavailable, "admin login is not configured")
	}

	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	if req.Username != h.cfg.Username || !utils.CheckAdminPassword(h.cfg.PasswordHash, req.Password) {
		h.log.Warn("admin login failed", slog.String("username", req.Username), slog.String("ip", c.IP()))
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, req.Username, h.cfg.TokenTTL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to issue token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"token":      token,
			"expires_in": int64(h.cfg.TokenTTL.Seconds()),
		},
	})
}

// Stats returns aggregate counters for the dashboard.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	now := h.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stats, err := h.store.Stats(c.UserContext(), startOfDay)
	if err != nil {
		h.log.Error("admin stats failed", slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load stats")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":      stats.TotalUsers,
			"total_orders":     stats.TotalOrders,
			"orders_today":     stats.OrdersToday,
			"orders_by_status": stats.OrdersByStatus,
			"background": fiber.Map{
				"pending": h.bg.Pending(),
				"dropped": h.bg.Dropped(),
				"failed":  h.bg.Failed(),
			},
			"timestamp": now.Format(time.RFC3339),
		},
	})
}

// ClearCache empties every record cache.
func (h *AdminHandler) ClearCache(c *fiber.Ctx) error {
	h.records.Clear()
	h.log.Info("record caches cleared")
	return c.JSON(fiber.Map{"status": "ok", "message": "Cache cleared"})
}

// ListOrders returns orders with pagination, status filter and search.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	filter := database.OrderFilter{
		Search: c.Query("search"),
		Limit:  pg.Limit,
		Offset: pg.Offset,
	}
	if status := c.Query("status"); status != "" {
		filter.Status = models.OrderStatus(status)
		if !filter.Status.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "unknown status")
		}
	}

	orders, total, err := h.store.ListOrders(c.UserContext(), filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

// GetOrder returns one order by its number.
func (h *AdminHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.store.FindOrderByNumber(c.UserContext(), c.Params("number"))
	if errors.Is(err, database.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// UpdateOrderStatus advances an order through its lifecycle.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if !req.Status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown status")
	}

	order, err := h.ledger.Advance(c.UserContext(), c.Params("number"), req.Status)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	case errors.Is(err, services.ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case err != nil:
		return err
	}

	h.log.Info("order status updated",
		slog.String("order_number", order.OrderNumber),
		slog.String("status", string(order.Status)))
	return c.JSON(fiber.Map{"success": true, "data": order})
}

// BlockUser stops the bot from answering a sender.
func (h *AdminHandler) BlockUser(c *fiber.Ctx) error {
	return h.setBlocked(c, true)
}

// UnblockUser lets a blocked sender talk to the bot again.
func (h *AdminHandler) UnblockUser(c *fiber.Ctx) error {
	return h.setBlocked(c, false)
}

func (h *AdminHandler) setBlocked(c *fiber.Ctx, blocked bool) error {
	waID := c.Params("wa_id")
	err := h.records.SetBlocked(c.UserContext(), waID, blocked)
	if errors.Is(err, database.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"wa_id": waID, "is_blocked": blocked}})
}
