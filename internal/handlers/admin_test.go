package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/waorder/internal/database"
	"github.com/example/waorder/internal/middleware"
	"github.com/example/waorder/internal/models"
	"github.com/example/waorder/internal/services"
	"github.com/example/waorder/internal/utils"
)

const jwtSecret = "test-secret"

type adminFixture struct {
	app     *fiber.App
	store   *database.MemoryStore
	records *services.RecordCache
	ledger  *services.Ledger
	token   string
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	log := discardLogger()
	store := database.NewMemoryStore()
	bg := services.NewBackground(1, 64, time.Second, log)
	t.Cleanup(func() { _ = bg.Shutdown(context.Background()) })

	records := services.NewRecordCache(store, bg, services.DefaultRecordCacheConfig(), time.Minute, log)
	ledger, err := services.NewLedger(store, records, bg, nil, services.LedgerConfig{TaxRate: decimal.Zero, Currency: "PKR", NodeID: 3}, log)
	require.NoError(t, err)

	hash, err := utils.HashAdminPassword("s3cret")
	require.NoError(t, err)

	h := NewAdminHandler(store, records, ledger, bg, AdminConfig{
		Username:     "admin",
		PasswordHash: hash,
		JWTSecret:    jwtSecret,
		TokenTTL:     time.Hour,
	}, log)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	auth := middleware.AdminAuth(jwtSecret)
	app.Post("/admin/login", h.Login)
	app.Get("/admin/stats", auth, h.Stats)
	app.Post("/admin/cache/clear", auth, h.ClearCache)
	app.Get("/admin/orders", auth, h.ListOrders)
	app.Get("/admin/orders/:number", auth, h.GetOrder)
	app.Patch("/admin/orders/:number/status", auth, h.UpdateOrderStatus)
	app.Post("/admin/users/:wa_id/block", auth, h.BlockUser)
	app.Post("/admin/users/:wa_id/unblock", auth, h.UnblockUser)

	token, err := utils.GenerateToken(jwtSecret, "admin", time.Hour)
	require.NoError(t, err)

	return &adminFixture{app: app, store: store, records: records, ledger: ledger, token: token}
}

func (f *adminFixture) do(t *testing.T, method, path, body string, authed bool) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (f *adminFixture) placeOrder(t *testing.T, waID string) *models.Order {
	t.Helper()
	ctx := context.Background()
	user, err := f.records.GetOrCreateUser(ctx, waID, "")
	require.NoError(t, err)
	order, err := f.ledger.CreateSingleItemOrder(ctx, user, services.FallbackMenu[0])
	require.NoError(t, err)
	return order
}

func TestAdminHandler_Login(t *testing.T) {
	f := newAdminFixture(t)

	code, body := f.do(t, http.MethodPost, "/admin/login", `{"username":"admin","password":"s3cret"}`, false)
	require.Equal(t, fiber.StatusOK, code)
	data := body["data"].(map[string]any)
	token := data["token"].(string)
	subject, err := utils.ParseToken(jwtSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)

	code, body = f.do(t, http.MethodPost, "/admin/login", `{"username":"admin","password":"nope"}`, false)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, false, body["success"])

	code, _ = f.do(t, http.MethodPost, "/admin/login", `{"username":"admin"}`, false)
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestAdminHandler_RequiresToken(t *testing.T) {
	f := newAdminFixture(t)
	code, _ := f.do(t, http.MethodGet, "/admin/stats", "", false)
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestAdminHandler_Stats(t *testing.T) {
	f := newAdminFixture(t)
	f.placeOrder(t, "923001")
	f.placeOrder(t, "923002")

	code, body := f.do(t, http.MethodGet, "/admin/stats", "", true)
	require.Equal(t, fiber.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 2, data["total_users"])
	assert.EqualValues(t, 2, data["total_orders"])
	assert.EqualValues(t, 2, data["orders_today"])
}

func TestAdminHandler_ClearCache(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.CreateUser(ctx, &models.User{WaID: "923001"}))
	blocked, err := f.records.IsBlocked(ctx, "923001")
	require.NoError(t, err)
	require.False(t, blocked)
	require.NoError(t, f.store.SetUserBlocked(ctx, "923001", true))

	code, body := f.do(t, http.MethodPost, "/admin/cache/clear", "", true)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	blocked, err = f.records.IsBlocked(ctx, "923001")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestAdminHandler_OrdersAndStatus(t *testing.T) {
	f := newAdminFixture(t)
	order := f.placeOrder(t, "923001")
	f.placeOrder(t, "923002")

	code, body := f.do(t, http.MethodGet, "/admin/orders?limit=1", "", true)
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["data"], 1)
	meta := body["pagination"].(map[string]any)
	assert.EqualValues(t, 2, meta["total"])
	assert.EqualValues(t, 2, meta["total_pages"])

	code, _ = f.do(t, http.MethodGet, "/admin/orders?status=bogus", "", true)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = f.do(t, http.MethodGet, "/admin/orders/"+order.OrderNumber, "", true)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, order.OrderNumber, body["data"].(map[string]any)["order_number"])

	code, _ = f.do(t, http.MethodGet, "/admin/orders/NOPE", "", true)
	assert.Equal(t, fiber.StatusNotFound, code)

	path := "/admin/orders/" + order.OrderNumber + "/status"
	code, body = f.do(t, http.MethodPatch, path, `{"status":"placed"}`, true)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "placed", body["data"].(map[string]any)["status"])

	code, _ = f.do(t, http.MethodPatch, path, `{"status":"pending_payment"}`, true)
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = f.do(t, http.MethodPatch, path, `{"status":"teleported"}`, true)
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestAdminHandler_BlockUnblock(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.CreateUser(ctx, &models.User{WaID: "923001"}))

	code, _ := f.do(t, http.MethodPost, "/admin/users/923001/block", "", true)
	require.Equal(t, fiber.StatusOK, code)
	blocked, err := f.records.IsBlocked(ctx, "923001")
	require.NoError(t, err)
	assert.True(t, blocked)

	code, _ = f.do(t, http.MethodPost, "/admin/users/923001/unblock", "", true)
	require.Equal(t, fiber.StatusOK, code)
	blocked, err = f.records.IsBlocked(ctx, "923001")
	require.NoError(t, err)
	assert.False(t, blocked)

	code, _ = f.do(t, http.MethodPost, "/admin/users/unknown/block", "", true)
	assert.Equal(t, fiber.StatusNotFound, code)
}
