package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/waorder/internal/models"
)

// GormStore implements Store on Postgres through GORM.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore wraps an open connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) FindUser(ctx context.Context, waID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "wa_id = ?", waID).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	db := s.db.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wa_id"}},
		DoNothing: true,
	}).Create(user)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// The insert lost to a concurrent first contact. user already carries the
		// id generated by BeforeCreate, so the winner is read into a fresh record.
		var existing models.User
		if err := db.First(&existing, "wa_id = ?", user.WaID).Error; err != nil {
			return translate(err)
		}
		*user = existing
	}
	return nil
}

func (s *GormStore) TouchUser(ctx context.Context, waID string, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("wa_id = ?", waID).
		Update("last_active_at", at).Error
}

func (s *GormStore) SetUserBlocked(ctx context.Context, waID string, blocked bool) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("wa_id = ?", waID).
		Update("is_blocked", blocked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) MessageProcessed(ctx context.Context, messageID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ProcessedMessage{}).
		Where("message_id = ?", messageID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) InsertProcessedMessage(ctx context.Context, msg *models.ProcessedMessage) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "message_id"}}, DoNothing: true}).
		Create(msg).Error
}

// UpsertRateWindow keeps the highest count seen for the window, since mirrors may land
// out of order.
func (s *GormStore) UpsertRateWindow(ctx context.Context, window *models.RateWindow) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "wa_id"}, {Name: "window_start"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"request_count": gorm.Expr("GREATEST(rate_limits.request_count, EXCLUDED.request_count)"),
				"updated_at":    gorm.Expr("EXCLUDED.updated_at"),
			}),
		}).
		Create(window).Error
}

func (s *GormStore) ListAvailableMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.WithContext(ctx).
		Where("is_available = ?", true).
		Order("sort_order").
		Find(&items).Error
	return items, err
}

func (s *GormStore) CreateOrder(ctx context.Context, order *models.Order) (int64, error) {
	var superseded int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("wa_id = ? AND status = ?", order.WaID, models.OrderStatusPendingPayment).
			Update("status", models.OrderStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		superseded = res.RowsAffected
		return tx.Create(order).Error
	})
	return superseded, err
}

func (s *GormStore) LatestPendingOrder(ctx context.Context, waID string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("wa_id = ? AND status = ?", waID, models.OrderStatusPendingPayment).
		Order("created_at desc").
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *GormStore) FindOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, "order_number = ?", orderNumber).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *GormStore) ListOrdersByWaID(ctx context.Context, waID string, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("wa_id = ?", waID).
		Order("created_at desc").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (s *GormStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("order_number ILIKE ? OR wa_id ILIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.Preload("Items").
		Order("created_at desc").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&orders).Error
	return orders, total, err
}

func (s *GormStore) UpdateOrder(ctx context.Context, order *models.Order, expected models.OrderStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, expected).
		Updates(map[string]any{
			"status":               order.Status,
			"payment_method":       order.PaymentMethod,
			"payment_status":       order.PaymentStatus,
			"payment_confirmed_at": order.PaymentConfirmedAt,
			"updated_at":           time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *GormStore) InsertMessageLog(ctx context.Context, entry *models.MessageLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) Stats(ctx context.Context, since time.Time) (Stats, error) {
	db := s.db.WithContext(ctx)
	stats := Stats{OrdersByStatus: make(map[string]int64)}

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Order{}).Where("created_at >= ?", since).Count(&stats.OrdersToday).Error; err != nil {
		return stats, err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return stats, err
	}
	for _, sc := range counts {
		stats.OrdersByStatus[sc.Status] = sc.Count
	}

	return stats, nil
}
