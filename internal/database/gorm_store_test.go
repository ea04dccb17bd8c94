package database

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/waorder/internal/models"
)

// sqlRecorder captures the statements GORM renders in dry-run mode.
type sqlRecorder struct {
	mu   sync.Mutex
	stmt []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface { return r }

func (r *sqlRecorder) Info(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	r.stmt = append(r.stmt, sql)
	r.mu.Unlock()
}

func (r *sqlRecorder) statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stmt...)
}

func (r *sqlRecorder) find(t *testing.T, prefix string) string {
	t.Helper()
	for _, stmt := range r.statements() {
		if strings.HasPrefix(stmt, prefix) {
			return stmt
		}
	}
	require.Failf(t, "statement not rendered", "no %q statement in %v", prefix, r.statements())
	return ""
}

// newDryRunStore renders SQL against the postgres dialect without a server. Dry-run
// statements affect no rows.
func newDryRunStore(t *testing.T) (*GormStore, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=waorder dbname=waorder sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 rec,
	})
	require.NoError(t, err)
	return NewGormStore(db), rec
}

func TestGormStore_CreateUserConflictReadsByWaID(t *testing.T) {
	store, rec := newDryRunStore(t)

	user := &models.User{WaID: "923001", Phone: "923001"}
	require.NoError(t, store.CreateUser(context.Background(), user))

	insert := rec.find(t, "INSERT INTO \"users\"")
	assert.Contains(t, insert, `ON CONFLICT ("wa_id") DO NOTHING`)

	lookup := rec.find(t, "SELECT * FROM \"users\"")
	assert.Contains(t, lookup, "wa_id = '923001'")
	assert.NotContains(t, lookup, `"users"."id" =`, "the generated id must not constrain the lookup")
}

func TestGormStore_UpdateOrderIsConditional(t *testing.T) {
	store, rec := newDryRunStore(t)
	id := uuid.New()

	order := &models.Order{
		BaseModel:     models.BaseModel{ID: id},
		Status:        models.OrderStatusPlaced,
		PaymentStatus: models.PaymentStatusConfirmed,
	}
	err := store.UpdateOrder(context.Background(), order, models.OrderStatusPendingPayment)
	assert.ErrorIs(t, err, ErrConflict)

	update := rec.find(t, "UPDATE \"orders\"")
	assert.Contains(t, update, "WHERE id = '"+id.String()+"' AND status = 'pending_payment'")
	assert.Contains(t, update, `"status"='placed'`)
}

func TestGormStore_SetUserBlockedMissingUser(t *testing.T) {
	store, rec := newDryRunStore(t)

	err := store.SetUserBlocked(context.Background(), "923001", true)
	assert.ErrorIs(t, err, ErrNotFound)

	update := rec.find(t, "UPDATE \"users\"")
	assert.Contains(t, update, `"is_blocked"=true`)
	assert.Contains(t, update, "WHERE wa_id = '923001'")
}

func TestGormStore_UpsertRateWindowKeepsHighestCount(t *testing.T) {
	store, rec := newDryRunStore(t)

	window := &models.RateWindow{
		WaID:         "923001",
		WindowStart:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		RequestCount: 4,
	}
	require.NoError(t, store.UpsertRateWindow(context.Background(), window))

	insert := rec.find(t, "INSERT INTO \"rate_limits\"")
	assert.Contains(t, insert, `ON CONFLICT ("wa_id","window_start") DO UPDATE SET`)
	assert.Contains(t, insert, `"request_count"=GREATEST(rate_limits.request_count, EXCLUDED.request_count)`)
}
