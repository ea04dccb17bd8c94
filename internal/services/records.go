package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/example/waorder/internal/cache"
	"github.com/example/waorder/internal/database"
	"github.com/example/waorder/internal/models"
)

// RecordCacheConfig sets one TTL per record kind, tuned to how stale each may be.
type RecordCacheConfig struct {
	UserTTL         time.Duration
	BlockedTTL      time.Duration
	HistoryTTL      time.Duration
	MenuTTL         time.Duration
	PendingOrderTTL time.Duration
	HistoryLimit    int
}

// DefaultRecordCacheConfig mirrors the production tuning.
func DefaultRecordCacheConfig() RecordCacheConfig {
	return RecordCacheConfig{
		UserTTL:         10 * time.Minute,
		BlockedTTL:      5 * time.Minute,
		HistoryTTL:      time.Minute,
		MenuTTL:         10 * time.Minute,
		PendingOrderTTL: 2 * time.Minute,
		HistoryLimit:    10,
	}
}

// FallbackMenu is served when the store has no available items.
var FallbackMenu = []models.MenuItem{
	{ItemID: "ITEM_ZINGER", Name: "Zinger Burger", Price: 45000, IsAvailable: true, SortOrder: 1},
	{ItemID: "ITEM_PIZZA", Name: "Pizza Slice", Price: 35000, IsAvailable: true, SortOrder: 2},
	{ItemID: "ITEM_FRIES", Name: "Fries", Price: 20000, IsAvailable: true, SortOrder: 3},
}

const menuKey = "menu_items:all"

// RecordCache is a set of read-through caches in front of the store. Reads fill the
// cache on a miss; writes go to the store first and then delete the affected keys.
// Cached records are copies and are never mutated in place.
type RecordCache struct {
	users   *cache.Cache[models.User]
	blocked *cache.Cache[bool]
	history *cache.Cache[[]models.Order]
	menu    *cache.Cache[[]models.MenuItem]
	pending *cache.Cache[models.Order]

	// orderGen counts order invalidations per sender. A fill whose read started
	// before an invalidation is discarded.
	genMu    sync.Mutex
	orderGen map[string]uint64
	epoch    uint64

	store database.Store
	bg    *Background
	cfg   RecordCacheConfig
	now   func() time.Time
	log   *slog.Logger
}

// NewRecordCache creates the caches. defaultTTL applies to any zero TTL in cfg.
func NewRecordCache(store database.Store, bg *Background, cfg RecordCacheConfig, defaultTTL time.Duration, log *slog.Logger) *RecordCache {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	return &RecordCache{
		users:    cache.New[models.User](defaultTTL),
		blocked:  cache.New[bool](defaultTTL),
		history:  cache.New[[]models.Order](defaultTTL),
		menu:     cache.New[[]models.MenuItem](defaultTTL),
		pending:  cache.New[models.Order](defaultTTL),
		orderGen: make(map[string]uint64),
		store:    store,
		bg:       bg,
		cfg:      cfg,
		now:      time.Now,
		log:      log,
	}
}

func userKey(waID string) string    { return "user:" + waID }
func blockedKey(waID string) string { return "blocked:" + waID }
func historyKey(waID string) string { return "order_history:" + waID }
func pendingKey(waID string) string { return "pending_order:" + waID }

// GetOrCreateUser returns the sender's profile, creating it on first contact. Every
// successful read schedules a last-active touch that the caller never waits for.
func (r *RecordCache) GetOrCreateUser(ctx context.Context, waID, phone string) (*models.User, error) {
	if user, ok := r.users.Get(userKey(waID)); ok {
		r.touch(waID)
		return &user, nil
	}

	user, err := r.store.FindUser(ctx, waID)
	switch {
	case err == nil:
		r.users.SetWithTTL(userKey(waID), *user, r.cfg.UserTTL)
		r.touch(waID)
		return user, nil
	case !errors.Is(err, database.ErrNotFound):
		return nil, err
	}

	if phone == "" {
		phone = waID
	}
	now := r.now().UTC()
	user = &models.User{
		WaID:         waID,
		Phone:        phone,
		FirstSeenAt:  now,
		LastActiveAt: now,
	}
	if err := r.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	r.users.SetWithTTL(userKey(waID), *user, r.cfg.UserTTL)
	r.log.Info("new user created", slog.String("wa_id", waID))
	return user, nil
}

func (r *RecordCache) touch(waID string) {
	at := r.now().UTC()
	r.bg.Go("user.touch", func(ctx context.Context) error {
		return r.store.TouchUser(ctx, waID, at)
	})
}

// IsBlocked reports the sender's block flag. Unknown senders are not blocked.
func (r *RecordCache) IsBlocked(ctx context.Context, waID string) (bool, error) {
	if blocked, ok := r.blocked.Get(blockedKey(waID)); ok {
		return blocked, nil
	}

	blocked := false
	user, err := r.store.FindUser(ctx, waID)
	switch {
	case err == nil:
		blocked = user.IsBlocked
	case !errors.Is(err, database.ErrNotFound):
		return false, err
	}

	r.blocked.SetWithTTL(blockedKey(waID), blocked, r.cfg.BlockedTTL)
	return blocked, nil
}

// SetBlocked writes the block flag and drops the cached copies.
func (r *RecordCache) SetBlocked(ctx context.Context, waID string, blocked bool) error {
	if err := r.store.SetUserBlocked(ctx, waID, blocked); err != nil {
		return err
	}
	r.blocked.Delete(blockedKey(waID))
	r.users.Delete(userKey(waID))
	return nil
}

type orderGeneration struct {
	epoch uint64
	gen   uint64
}

func (r *RecordCache) generation(waID string) orderGeneration {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	return orderGeneration{epoch: r.epoch, gen: r.orderGen[waID]}
}

// fillOrders runs fill only if no invalidation of waID happened since seen was taken.
func (r *RecordCache) fillOrders(waID string, seen orderGeneration, fill func()) {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	if r.epoch != seen.epoch || r.orderGen[waID] != seen.gen {
		return
	}
	fill()
}

// OrderHistory lists the sender's most recent orders, newest first.
func (r *RecordCache) OrderHistory(ctx context.Context, waID string) ([]models.Order, error) {
	if orders, ok := r.history.Get(historyKey(waID)); ok {
		return append([]models.Order(nil), orders...), nil
	}

	seen := r.generation(waID)
	orders, err := r.store.ListOrdersByWaID(ctx, waID, r.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}
	r.fillOrders(waID, seen, func() {
		r.history.SetWithTTL(historyKey(waID), orders, r.cfg.HistoryTTL)
	})
	return append([]models.Order(nil), orders...), nil
}

// MenuItems lists available menu items in display order, or FallbackMenu when the
// store has none.
func (r *RecordCache) MenuItems(ctx context.Context) ([]models.MenuItem, error) {
	if items, ok := r.menu.Get(menuKey); ok {
		return append([]models.MenuItem(nil), items...), nil
	}

	items, err := r.store.ListAvailableMenuItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		items = FallbackMenu
	}
	r.menu.SetWithTTL(menuKey, items, r.cfg.MenuTTL)
	return append([]models.MenuItem(nil), items...), nil
}

// MenuItem finds one available item by id.
func (r *RecordCache) MenuItem(ctx context.Context, itemID string) (*models.MenuItem, bool, error) {
	items, err := r.MenuItems(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range items {
		if items[i].ItemID == itemID {
			return &items[i], true, nil
		}
	}
	return nil, false, nil
}

// PendingOrder returns the sender's most recent pending_payment order, or
// database.ErrNotFound. Only hits are cached.
func (r *RecordCache) PendingOrder(ctx context.Context, waID string) (*models.Order, error) {
	if order, ok := r.pending.Get(pendingKey(waID)); ok {
		return &order, nil
	}

	seen := r.generation(waID)
	order, err := r.store.LatestPendingOrder(ctx, waID)
	if err != nil {
		return nil, err
	}
	r.fillOrders(waID, seen, func() {
		r.pending.SetWithTTL(pendingKey(waID), *order, r.cfg.PendingOrderTTL)
	})
	return order, nil
}

// InvalidateOrders drops every cached order view of the sender. Reads already in
// flight for the sender will not repopulate the cache.
func (r *RecordCache) InvalidateOrders(waID string) {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	r.orderGen[waID]++
	r.history.Delete(historyKey(waID))
	r.pending.Delete(pendingKey(waID))
}

// InvalidateMenu drops the cached menu.
func (r *RecordCache) InvalidateMenu() {
	r.menu.Delete(menuKey)
}

// Clear empties every record cache.
func (r *RecordCache) Clear() {
	r.genMu.Lock()
	r.epoch++
	r.orderGen = make(map[string]uint64)
	r.history.Clear()
	r.pending.Clear()
	r.genMu.Unlock()

	r.users.Clear()
	r.blocked.Clear()
	r.menu.Clear()
}
