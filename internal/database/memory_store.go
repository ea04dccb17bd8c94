package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/example/waorder/internal/models"
)

// MemoryStore is a process-local Store. The server falls back to it when Postgres is
// unreachable at startup, so the bot keeps answering in degraded mode.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]*models.User
	processed   map[string]models.ProcessedMessage
	rateWindows map[string]models.RateWindow
	menu        []models.MenuItem
	orders      []*models.Order
	logs        []models.MessageLog
	now         func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store seeded with menu.
func NewMemoryStore(menu ...models.MenuItem) *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]*models.User),
		processed:   make(map[string]models.ProcessedMessage),
		rateWindows: make(map[string]models.RateWindow),
		menu:        append([]models.MenuItem(nil), menu...),
		now:         time.Now,
	}
}

func stamp(base *models.BaseModel, now time.Time) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

func copyOrder(o *models.Order) models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	if o.PaymentConfirmedAt != nil {
		at := *o.PaymentConfirmedAt
		cp.PaymentConfirmedAt = &at
	}
	return cp
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) FindUser(_ context.Context, waID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[waID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[user.WaID]; ok {
		*user = *existing
		return nil
	}
	stamp(&user.BaseModel, s.now())
	cp := *user
	s.users[user.WaID] = &cp
	return nil
}

func (s *MemoryStore) TouchUser(_ context.Context, waID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[waID]; ok {
		user.LastActiveAt = at
	}
	return nil
}

func (s *MemoryStore) SetUserBlocked(_ context.Context, waID string, blocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[waID]
	if !ok {
		return ErrNotFound
	}
	user.IsBlocked = blocked
	return nil
}

func (s *MemoryStore) MessageProcessed(_ context.Context, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.processed[messageID]
	return ok, nil
}

func (s *MemoryStore) InsertProcessedMessage(_ context.Context, msg *models.ProcessedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.processed[msg.MessageID]; ok {
		return nil
	}
	stamp(&msg.BaseModel, s.now())
	s.processed[msg.MessageID] = *msg
	return nil
}

func (s *MemoryStore) UpsertRateWindow(_ context.Context, window *models.RateWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := window.WaID + "|" + window.WindowStart.UTC().Format(time.RFC3339)
	if existing, ok := s.rateWindows[key]; ok {
		existing.RequestCount = max(existing.RequestCount, window.RequestCount)
		existing.UpdatedAt = s.now()
		s.rateWindows[key] = existing
		return nil
	}
	stamp(&window.BaseModel, s.now())
	s.rateWindows[key] = *window
	return nil
}

// RateWindows returns the mirrored windows of waID, oldest first.
func (s *MemoryStore) RateWindows(waID string) []models.RateWindow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	windows := lo.Filter(lo.Values(s.rateWindows), func(w models.RateWindow, _ int) bool {
		return w.WaID == waID
	})
	sort.Slice(windows, func(i, j int) bool { return windows[i].WindowStart.Before(windows[j].WindowStart) })
	return windows
}

// SetMenu replaces the menu items.
func (s *MemoryStore) SetMenu(items []models.MenuItem) {
	s.mu.Lock()
	s.menu = append([]models.MenuItem(nil), items...)
	s.mu.Unlock()
}

func (s *MemoryStore) ListAvailableMenuItems(context.Context) ([]models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := lo.Filter(s.menu, func(item models.MenuItem, _ int) bool { return item.IsAvailable })
	sort.SliceStable(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })
	return items, nil
}

func (s *MemoryStore) CreateOrder(_ context.Context, order *models.Order) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var superseded int64
	for _, existing := range s.orders {
		if existing.WaID == order.WaID && existing.Status == models.OrderStatusPendingPayment {
			existing.Status = models.OrderStatusCancelled
			existing.UpdatedAt = s.now()
			superseded++
		}
	}

	now := s.now()
	stamp(&order.BaseModel, now)
	for i := range order.Items {
		stamp(&order.Items[i].BaseModel, now)
		order.Items[i].OrderID = order.ID
	}
	cp := copyOrder(order)
	s.orders = append(s.orders, &cp)
	return superseded, nil
}

// latest returns the matching orders newest first. Insertion order breaks timestamp ties.
func (s *MemoryStore) latest(match func(*models.Order) bool) []models.Order {
	var out []models.Order
	for i := len(s.orders) - 1; i >= 0; i-- {
		if match(s.orders[i]) {
			out = append(out, copyOrder(s.orders[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) LatestPendingOrder(_ context.Context, waID string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := s.latest(func(o *models.Order) bool {
		return o.WaID == waID && o.Status == models.OrderStatusPendingPayment
	})
	if len(orders) == 0 {
		return nil, ErrNotFound
	}
	return &orders[0], nil
}

func (s *MemoryStore) FindOrderByNumber(_ context.Context, orderNumber string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.OrderNumber == orderNumber {
			cp := copyOrder(o)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListOrdersByWaID(_ context.Context, waID string, limit int) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := s.latest(func(o *models.Order) bool { return o.WaID == waID })
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *MemoryStore) ListOrders(_ context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := s.latest(func(o *models.Order) bool {
		if filter.Status != "" && o.Status != filter.Status {
			return false
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(o.OrderNumber), strings.ToLower(filter.Search)) &&
			!strings.Contains(o.WaID, filter.Search) {
			return false
		}
		return true
	})
	total := int64(len(orders))
	if filter.Offset >= len(orders) {
		return []models.Order{}, total, nil
	}
	orders = orders[filter.Offset:]
	if filter.Limit > 0 && len(orders) > filter.Limit {
		orders = orders[:filter.Limit]
	}
	return orders, total, nil
}

func (s *MemoryStore) UpdateOrder(_ context.Context, order *models.Order, expected models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID != order.ID {
			continue
		}
		if o.Status != expected {
			return ErrConflict
		}
		o.Status = order.Status
		o.PaymentMethod = order.PaymentMethod
		o.PaymentStatus = order.PaymentStatus
		o.PaymentConfirmedAt = nil
		if order.PaymentConfirmedAt != nil {
			at := *order.PaymentConfirmedAt
			o.PaymentConfirmedAt = &at
		}
		o.UpdatedAt = s.now()
		return nil
	}
	return ErrConflict
}

func (s *MemoryStore) InsertMessageLog(_ context.Context, entry *models.MessageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&entry.BaseModel, s.now())
	s.logs = append(s.logs, *entry)
	return nil
}

// MessageLogs returns a copy of the stored message logs.
func (s *MemoryStore) MessageLogs() []models.MessageLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MessageLog(nil), s.logs...)
}

// ProcessedCount is the number of recorded processed messages.
func (s *MemoryStore) ProcessedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processed)
}

func (s *MemoryStore) Stats(_ context.Context, since time.Time) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Stats{
		TotalUsers:     int64(len(s.users)),
		TotalOrders:    int64(len(s.orders)),
		OrdersByStatus: make(map[string]int64),
	}
	for _, o := range s.orders {
		if !o.CreatedAt.Before(since) {
			stats.OrdersToday++
		}
		stats.OrdersByStatus[string(o.Status)]++
	}
	return stats, nil
}
