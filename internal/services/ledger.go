package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/example/waorder/internal/database"
	"github.com/example/waorder/internal/models"
)

var (
	ErrNoPendingOrder       = errors.New("no pending order")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrPaymentMethodMissing = errors.New("payment method not selected")
	ErrInvalidLines         = errors.New("invalid order lines")
)

// OrderLine is one requested product of a new order.
type OrderLine struct {
	ProductID string `validate:"required"`
	Name      string
	UnitPrice int64 `validate:"gte=0,lte=100000000000"`
	Quantity  int   `validate:"gte=1,lte=1000"`
}

// Cart bounds. Together with a tax rate of at most 1 they keep every order total
// far inside int64.
const (
	MaxUnitPrice    int64 = 100_000_000_000
	MaxLineQuantity       = 1000
	MaxOrderLines         = 100
)

// AdminNotifier is told about every order that reaches placed.
type AdminNotifier interface {
	NotifyOrderPlaced(ctx context.Context, order *models.Order) error
}

// LedgerConfig holds the pricing settings of new orders.
type LedgerConfig struct {
	TaxRate  decimal.Decimal
	Currency string
	NodeID   int64
}

// Ledger creates orders and moves them through their lifecycle.
type Ledger struct {
	store    database.Store
	records  *RecordCache
	bg       *Background
	notifier AdminNotifier
	ids      *snowflake.Node
	validate *validator.Validate
	taxRate  decimal.Decimal
	currency string
	now      func() time.Time
	log      *slog.Logger
}

// NewLedger creates a Ledger. notifier may be nil.
func NewLedger(store database.Store, records *RecordCache, bg *Background, notifier AdminNotifier, cfg LedgerConfig, log *slog.Logger) (*Ledger, error) {
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("ledger: order number node: %w", err)
	}
	if cfg.TaxRate.IsNegative() || cfg.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("ledger: tax rate %s outside [0, 1]", cfg.TaxRate)
	}
	return &Ledger{
		store:    store,
		records:  records,
		bg:       bg,
		notifier: notifier,
		ids:      node,
		validate: validator.New(),
		taxRate:  cfg.TaxRate,
		currency: cfg.Currency,
		now:      time.Now,
		log:      log,
	}, nil
}

// Tax is subtotal × rate, rounded half away from zero to whole minor units.
func (l *Ledger) Tax(subtotal int64) int64 {
	return decimal.NewFromInt(subtotal).Mul(l.taxRate).Round(0).IntPart()
}

func (l *Ledger) nextOrderNumber() string {
	return strings.ToUpper(l.ids.Generate().Base36())
}

// CreateSingleItemOrder orders one unit of a menu item.
func (l *Ledger) CreateSingleItemOrder(ctx context.Context, user *models.User, item models.MenuItem) (*models.Order, error) {
	line := OrderLine{ProductID: item.ItemID, Name: item.Name, UnitPrice: item.Price, Quantity: 1}
	return l.create(ctx, user, []OrderLine{line}, models.OrderSourceSingleItem)
}

// CreateCatalogOrder orders every line of a catalog cart.
func (l *Ledger) CreateCatalogOrder(ctx context.Context, user *models.User, lines []OrderLine) (*models.Order, error) {
	return l.create(ctx, user, lines, models.OrderSourceCatalog)
}

func (l *Ledger) validateLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: no lines", ErrInvalidLines)
	}
	if len(lines) > MaxOrderLines {
		return fmt.Errorf("%w: %d lines", ErrInvalidLines, len(lines))
	}
	for i, line := range lines {
		if err := l.validate.Struct(line); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidLines, i, err)
		}
	}
	return nil
}

func (l *Ledger) create(ctx context.Context, user *models.User, lines []OrderLine, source string) (*models.Order, error) {
	if err := l.validateLines(lines); err != nil {
		return nil, err
	}

	items := lo.Map(lines, func(line OrderLine, _ int) models.OrderItem {
		name := line.Name
		if name == "" {
			name = line.ProductID
		}
		return models.OrderItem{
			ProductID: line.ProductID,
			Name:      name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: line.UnitPrice * int64(line.Quantity),
		}
	})
	subtotal := lo.SumBy(items, func(item models.OrderItem) int64 { return item.LineTotal })
	tax := l.Tax(subtotal)

	order := &models.Order{
		UserID:        user.ID,
		WaID:          user.WaID,
		CustomerPhone: user.Phone,
		OrderNumber:   l.nextOrderNumber(),
		Status:        models.OrderStatusPendingPayment,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         subtotal + tax,
		Currency:      l.currency,
		PaymentStatus: models.PaymentStatusPending,
		Source:        source,
		Items:         items,
	}

	superseded, err := l.store.CreateOrder(ctx, order)
	l.records.InvalidateOrders(user.WaID)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	l.log.Info("order created",
		slog.String("wa_id", user.WaID),
		slog.String("order_number", order.OrderNumber),
		slog.Int64("total", order.Total),
		slog.Int64("superseded", superseded))
	return order, nil
}

// PendingOrder returns the sender's most recent pending_payment order.
func (l *Ledger) PendingOrder(ctx context.Context, waID string) (*models.Order, error) {
	order, err := l.records.PendingOrder(ctx, waID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNoPendingOrder
	}
	return order, err
}

// SelectPaymentMethod records how the sender will pay. The order stays pending.
func (l *Ledger) SelectPaymentMethod(ctx context.Context, waID, method string) (*models.Order, error) {
	if method != models.PaymentMethodBankTransfer && method != models.PaymentMethodCashOnDelivery {
		return nil, fmt.Errorf("unknown payment method %q", method)
	}

	order, err := l.freshPending(ctx, waID)
	if err != nil {
		return nil, err
	}

	order.PaymentMethod = method
	if err := l.update(ctx, order, models.OrderStatusPendingPayment); err != nil {
		return nil, err
	}
	return order, nil
}

// ConfirmPayment moves the pending order to placed. Of several concurrent calls
// exactly one succeeds; the others get ErrNoPendingOrder.
func (l *Ledger) ConfirmPayment(ctx context.Context, waID string) (*models.Order, error) {
	order, err := l.freshPending(ctx, waID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod == "" {
		return nil, ErrPaymentMethodMissing
	}

	at := l.now().UTC()
	order.Status = models.OrderStatusPlaced
	order.PaymentStatus = models.PaymentStatusConfirmed
	order.PaymentConfirmedAt = &at
	if err := l.update(ctx, order, models.OrderStatusPendingPayment); err != nil {
		return nil, err
	}

	l.log.Info("payment confirmed", slog.String("wa_id", waID), slog.String("order_number", order.OrderNumber))
	l.notify(order)
	return order, nil
}

// CancelPendingOrder cancels the sender's pending order.
func (l *Ledger) CancelPendingOrder(ctx context.Context, waID string) (*models.Order, error) {
	order, err := l.freshPending(ctx, waID)
	if err != nil {
		return nil, err
	}

	order.Status = models.OrderStatusCancelled
	if err := l.update(ctx, order, models.OrderStatusPendingPayment); err != nil {
		return nil, err
	}
	return order, nil
}

// Advance moves an order forward in its lifecycle, or cancels it.
func (l *Ledger) Advance(ctx context.Context, orderNumber string, to models.OrderStatus) (*models.Order, error) {
	order, err := l.store.FindOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if !from.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	order.Status = to
	if from == models.OrderStatusPendingPayment && to == models.OrderStatusPlaced {
		at := l.now().UTC()
		order.PaymentStatus = models.PaymentStatusConfirmed
		order.PaymentConfirmedAt = &at
	}

	err = l.store.UpdateOrder(ctx, order, from)
	l.records.InvalidateOrders(order.WaID)
	if errors.Is(err, database.ErrConflict) {
		return nil, fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, orderNumber)
	}
	if err != nil {
		return nil, err
	}

	if to == models.OrderStatusPlaced {
		l.notify(order)
	}
	return order, nil
}

// freshPending reads the pending order from the store, bypassing the cache, so a
// transition is always checked against the current row.
func (l *Ledger) freshPending(ctx context.Context, waID string) (*models.Order, error) {
	order, err := l.store.LatestPendingOrder(ctx, waID)
	if errors.Is(err, database.ErrNotFound) {
		l.records.InvalidateOrders(waID)
		return nil, ErrNoPendingOrder
	}
	return order, err
}

func (l *Ledger) update(ctx context.Context, order *models.Order, expected models.OrderStatus) error {
	err := l.store.UpdateOrder(ctx, order, expected)
	l.records.InvalidateOrders(order.WaID)
	if errors.Is(err, database.ErrConflict) {
		return ErrNoPendingOrder
	}
	return err
}

func (l *Ledger) notify(order *models.Order) {
	if l.notifier == nil {
		return
	}
	snapshot := *order
	l.bg.Go("order.notify_admin", func(ctx context.Context) error {
		return l.notifier.NotifyOrderPlaced(ctx, &snapshot)
	})
}
