package database

import (
	"context"
	"errors"
	"time"

	"github.com/example/waorder/internal/models"
)

var (
	// ErrNotFound is returned when a lookup by natural key matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional update finds the row in another state.
	ErrConflict = errors.New("record changed concurrently")
)

// OrderFilter narrows an admin order listing.
type OrderFilter struct {
	Status models.OrderStatus
	Search string
	Limit  int
	Offset int
}

// Stats are aggregate counters for the admin dashboard.
type Stats struct {
	TotalUsers     int64            `json:"total_users"`
	TotalOrders    int64            `json:"total_orders"`
	OrdersToday    int64            `json:"orders_today"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
}

// Store is the persistent record store behind the caches.
type Store interface {
	Ping(ctx context.Context) error

	FindUser(ctx context.Context, waID string) (*models.User, error)
	// CreateUser inserts user, or loads the existing row when another request won the race.
	CreateUser(ctx context.Context, user *models.User) error
	TouchUser(ctx context.Context, waID string, at time.Time) error
	SetUserBlocked(ctx context.Context, waID string, blocked bool) error

	MessageProcessed(ctx context.Context, messageID string) (bool, error)
	InsertProcessedMessage(ctx context.Context, msg *models.ProcessedMessage) error

	UpsertRateWindow(ctx context.Context, window *models.RateWindow) error

	ListAvailableMenuItems(ctx context.Context) ([]models.MenuItem, error)

	// CreateOrder inserts order with its items and cancels every other pending_payment
	// order of the same sender in the same transaction. It returns how many were cancelled.
	CreateOrder(ctx context.Context, order *models.Order) (int64, error)
	LatestPendingOrder(ctx context.Context, waID string) (*models.Order, error)
	FindOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListOrdersByWaID(ctx context.Context, waID string, limit int) ([]models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	// UpdateOrder writes the status and payment fields of order if the stored status
	// still equals expected, otherwise it returns ErrConflict.
	UpdateOrder(ctx context.Context, order *models.Order, expected models.OrderStatus) error

	InsertMessageLog(ctx context.Context, entry *models.MessageLog) error

	Stats(ctx context.Context, since time.Time) (Stats, error)
}
