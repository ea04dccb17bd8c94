package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/waorder/internal/models"
	"github.com/example/waorder/internal/services"
)

// Status is the outcome of handling one inbound message.
type Status string

const (
	StatusOK          Status = "ok"
	StatusDuplicate   Status = "duplicate"
	StatusBlocked     Status = "blocked"
	StatusRateLimited Status = "rate_limited"
	StatusError       Status = "error"
	StatusIgnored     Status = "ignored"
)

// Router admits inbound messages and dispatches them to the matching screen.
type Router struct {
	dedup    *services.DedupTracker
	records  *services.RecordCache
	limiter  *services.RateLimiter
	ledger   *services.Ledger
	messages *services.MessageLogger
	screens  *Screens
	log      *slog.Logger
}

// NewRouter wires a Router. messages may be nil.
func NewRouter(
	dedup *services.DedupTracker,
	records *services.RecordCache,
	limiter *services.RateLimiter,
	ledger *services.Ledger,
	messages *services.MessageLogger,
	screens *Screens,
	log *slog.Logger,
) *Router {
	return &Router{
		dedup:    dedup,
		records:  records,
		limiter:  limiter,
		ledger:   ledger,
		messages: messages,
		screens:  screens,
		log:      log,
	}
}

// Handle runs admission (dedup, block list, rate limit) and then the conversation
// step for in. It never returns an error: failures are logged and reported as
// StatusError.
func (r *Router) Handle(ctx context.Context, in Inbound) (status Status) {
	if in.MessageID == "" || in.From == "" || in.Event == nil {
		return StatusIgnored
	}
	kind := in.Event.Kind()
	log := r.log.With(slog.String("wa_id", in.From), slog.String("message_id", in.MessageID))

	defer func() {
		if p := recover(); p != nil {
			r.fail(log, in, fmt.Errorf("panic: %v", p))
			status = StatusError
		}
	}()

	if !r.dedup.Claim(ctx, in.MessageID, in.From, kind) {
		log.Debug("duplicate message ignored")
		return StatusDuplicate
	}

	blocked, err := r.records.IsBlocked(ctx, in.From)
	if err != nil {
		r.fail(log, in, fmt.Errorf("block lookup: %w", err))
		return StatusError
	}
	if blocked {
		log.Info("blocked user attempted contact")
		return StatusBlocked
	}

	if allowed, _ := r.limiter.Check(in.From); !allowed {
		log.Warn("rate limit exceeded")
		if err := r.screens.RateLimited(ctx, in.From); err != nil {
			log.Error("rate limit notice failed", slog.Any("error", err))
		}
		return StatusRateLimited
	}

	user, err := r.records.GetOrCreateUser(ctx, in.From, in.Phone)
	if err != nil {
		r.fail(log, in, fmt.Errorf("load user: %w", err))
		return StatusError
	}

	r.messages.Inbound(in.From, kind, in.Event, nil)

	if err := r.dispatch(ctx, user, in.Event); err != nil {
		r.fail(log, in, err)
		return StatusError
	}
	return StatusOK
}

func (r *Router) fail(log *slog.Logger, in Inbound, err error) {
	log.Error("error handling message", slog.String("kind", in.Event.Kind()), slog.Any("error", err))
	r.messages.Inbound(in.From, in.Event.Kind(), in.Event, err)
}

func (r *Router) dispatch(ctx context.Context, user *models.User, event Event) error {
	to := user.WaID
	switch ev := event.(type) {
	case TextEvent:
		return r.run(ctx, user, KeywordAction(ev.Text))
	case ButtonEvent:
		return r.run(ctx, user, ButtonAction(ev.ID))
	case ListEvent:
		return r.selectItem(ctx, user, ev.ID)
	case CatalogOrderEvent:
		return r.catalogOrder(ctx, user, ev)
	case UnsupportedEvent:
		return r.screens.Unsupported(ctx, to)
	default:
		return fmt.Errorf("unhandled event %T", event)
	}
}

func (r *Router) run(ctx context.Context, user *models.User, action Action) error {
	to := user.WaID
	switch action {
	case ActionHome:
		return r.screens.Home(ctx, to)
	case ActionMenu:
		return r.screens.Menu(ctx, to)
	case ActionOrderList:
		return r.screens.OrderList(ctx, to)
	case ActionCatalog:
		return r.screens.Catalog(ctx, to)
	case ActionMore:
		return r.screens.More(ctx, to)
	case ActionHistory:
		return r.screens.History(ctx, to, user.WaID)
	case ActionContact:
		return r.screens.Contact(ctx, to)
	case ActionCheckout:
		return r.checkout(ctx, to)
	case ActionPayBank:
		return r.selectPayment(ctx, to, models.PaymentMethodBankTransfer)
	case ActionPayCOD:
		return r.selectPayment(ctx, to, models.PaymentMethodCashOnDelivery)
	case ActionConfirmPayment:
		return r.confirmPayment(ctx, to)
	case ActionCancelOrder:
		return r.cancelOrder(ctx, to)
	default:
		return fmt.Errorf("unhandled action %s", action)
	}
}

func (r *Router) selectItem(ctx context.Context, user *models.User, itemID string) error {
	item, ok, err := r.records.MenuItem(ctx, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return r.screens.UnknownItem(ctx, user.WaID)
	}

	order, err := r.ledger.CreateSingleItemOrder(ctx, user, *item)
	if err != nil {
		return err
	}
	return r.screens.Bill(ctx, user.WaID, order)
}

func (r *Router) catalogOrder(ctx context.Context, user *models.User, ev CatalogOrderEvent) error {
	lines := make([]services.OrderLine, len(ev.Lines))
	for i, line := range ev.Lines {
		if line.Name == "" {
			if item, ok, err := r.records.MenuItem(ctx, line.ProductID); err == nil && ok {
				line.Name = item.Name
			}
		}
		lines[i] = line
	}

	order, err := r.ledger.CreateCatalogOrder(ctx, user, lines)
	if errors.Is(err, services.ErrInvalidLines) {
		r.log.Warn("invalid catalog cart", slog.String("wa_id", user.WaID), slog.Any("error", err))
		return r.screens.InvalidCart(ctx, user.WaID)
	}
	if err != nil {
		return err
	}
	return r.screens.Bill(ctx, user.WaID, order)
}

func (r *Router) checkout(ctx context.Context, to string) error {
	order, err := r.ledger.PendingOrder(ctx, to)
	if errors.Is(err, services.ErrNoPendingOrder) {
		return r.screens.NoPendingOrder(ctx, to)
	}
	if err != nil {
		return err
	}
	if order.PaymentMethod != "" {
		return r.screens.PaymentSelected(ctx, to, order)
	}
	return r.screens.Bill(ctx, to, order)
}

func (r *Router) selectPayment(ctx context.Context, to, method string) error {
	order, err := r.ledger.SelectPaymentMethod(ctx, to, method)
	if errors.Is(err, services.ErrNoPendingOrder) {
		return r.screens.NoPendingOrder(ctx, to)
	}
	if err != nil {
		return err
	}
	return r.screens.PaymentSelected(ctx, to, order)
}

func (r *Router) confirmPayment(ctx context.Context, to string) error {
	order, err := r.ledger.ConfirmPayment(ctx, to)
	switch {
	case errors.Is(err, services.ErrNoPendingOrder):
		return r.screens.NoPendingOrder(ctx, to)
	case errors.Is(err, services.ErrPaymentMethodMissing):
		return r.screens.CheckoutPrompt(ctx, to)
	case err != nil:
		return err
	}
	return r.screens.OrderPlaced(ctx, to, order)
}

func (r *Router) cancelOrder(ctx context.Context, to string) error {
	order, err := r.ledger.CancelPendingOrder(ctx, to)
	if errors.Is(err, services.ErrNoPendingOrder) {
		return r.screens.NoPendingOrder(ctx, to)
	}
	if err != nil {
		return err
	}
	return r.screens.OrderCancelled(ctx, to, order)
}
