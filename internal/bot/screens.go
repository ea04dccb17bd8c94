package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/example/waorder/internal/models"
	"github.com/example/waorder/internal/services"
)

// ScreenConfig holds the shop-specific copy shown to senders.
type ScreenConfig struct {
	CurrencySymbol      string
	ContactInfo         string
	PaymentInstructions string
}

// Screens renders each conversation screen through a Messenger.
type Screens struct {
	out     services.Messenger
	records *services.RecordCache
	cfg     ScreenConfig
}

// NewScreens creates the screen renderer.
func NewScreens(out services.Messenger, records *services.RecordCache, cfg ScreenConfig) *Screens {
	return &Screens{out: out, records: records, cfg: cfg}
}

var (
	homeButtons = []services.Button{
		{ID: BtnMenu, Title: "📋 Menu"},
		{ID: BtnOrder, Title: "🛒 Order"},
		{ID: BtnMore, Title: "⚙️ More"},
	}
	moreButtons = []services.Button{
		{ID: BtnHistory, Title: "📦 Order history"},
		{ID: BtnContact, Title: "📞 Contact us"},
		{ID: BtnCatalog, Title: "🛍️ Catalog"},
	}
	checkoutButtons = []services.Button{
		{ID: BtnPayBank, Title: "🏦 Bank transfer"},
		{ID: BtnPayCOD, Title: "💵 Cash on delivery"},
		{ID: BtnCancelOrder, Title: "❌ Cancel"},
	}
)

var statusEmoji = map[models.OrderStatus]string{
	models.OrderStatusPendingPayment: "⏳",
	models.OrderStatusPlaced:         "🆕",
	models.OrderStatusConfirmed:      "✅",
	models.OrderStatusPreparing:      "👨‍🍳",
	models.OrderStatusReady:          "📦",
	models.OrderStatusDelivered:      "✔️",
	models.OrderStatusCancelled:      "❌",
}

func (s *Screens) money(minor int64) string {
	return services.FormatMoney(minor, s.cfg.CurrencySymbol)
}

// Home shows the main menu.
func (s *Screens) Home(ctx context.Context, to string) error {
	return s.out.SendButtons(ctx, to, "Welcome!!👋 What would you like to do?", homeButtons)
}

// Menu lists the available items with prices.
func (s *Screens) Menu(ctx context.Context, to string) error {
	items, err := s.records.MenuItems(ctx)
	if err != nil {
		return err
	}

	lines := []string{"🧾 *Menu*\n"}
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("• %s — %s", item.Name, s.money(item.Price)))
	}
	lines = append(lines, "\nTap *Order* to place an order.")

	return s.out.SendButtons(ctx, to, strings.Join(lines, "\n"), []services.Button{
		{ID: BtnOrder, Title: "🛒 Order"},
		{ID: BtnBackHome, Title: "🔙 Back"},
		{ID: BtnMore, Title: "⚙️ More"},
	})
}

// OrderList offers the menu items as a selectable list.
func (s *Screens) OrderList(ctx context.Context, to string) error {
	items, err := s.records.MenuItems(ctx)
	if err != nil {
		return err
	}

	rows := lo.Map(items, func(item models.MenuItem, _ int) services.ListRow {
		return services.ListRow{ID: item.ItemID, Title: item.Name, Description: s.money(item.Price)}
	})
	sections := []services.ListSection{{Title: "Available items", Rows: rows}}

	return s.out.SendList(ctx, to, "Select an item to place your order:", "View items", sections)
}

// Catalog opens the business catalog.
func (s *Screens) Catalog(ctx context.Context, to string) error {
	return s.out.SendCatalog(ctx, to, "🛍️ Browse our catalog and send your cart to order.")
}

// More shows secondary options.
func (s *Screens) More(ctx context.Context, to string) error {
	return s.out.SendButtons(ctx, to, "More options:", moreButtons)
}

// Contact shows contact details, then home.
func (s *Screens) Contact(ctx context.Context, to string) error {
	if err := s.out.SendText(ctx, to, "📞 *Contact Us*\n"+s.cfg.ContactInfo); err != nil {
		return err
	}
	return s.Home(ctx, to)
}

// History lists the sender's recent orders, then home.
func (s *Screens) History(ctx context.Context, to, waID string) error {
	orders, err := s.records.OrderHistory(ctx, waID)
	if err != nil {
		return err
	}

	if len(orders) == 0 {
		if err := s.out.SendText(ctx, to, "No orders yet. Tap *Order* to place your first order! 🛒"); err != nil {
			return err
		}
		return s.Home(ctx, to)
	}

	lines := []string{"📦 *Your Recent Orders*\n"}
	for _, order := range orders {
		emoji, ok := statusEmoji[order.Status]
		if !ok {
			emoji = "❓"
		}
		lines = append(lines, fmt.Sprintf("%s #%s %s — %s (%s)",
			emoji, order.OrderNumber, order.Summary(), order.Status, s.money(order.Total)))
	}

	if err := s.out.SendText(ctx, to, strings.Join(lines, "\n")); err != nil {
		return err
	}
	return s.Home(ctx, to)
}

// Bill sends the itemised bill followed by the payment choice.
func (s *Screens) Bill(ctx context.Context, to string, order *models.Order) error {
	if err := s.out.SendText(ctx, to, services.RenderBill(order, s.cfg.CurrencySymbol)); err != nil {
		return err
	}
	return s.CheckoutPrompt(ctx, to)
}

// CheckoutPrompt asks how the sender will pay.
func (s *Screens) CheckoutPrompt(ctx context.Context, to string) error {
	return s.out.SendButtons(ctx, to, "How would you like to pay?", checkoutButtons)
}

// PaymentSelected explains the chosen method and asks for confirmation.
func (s *Screens) PaymentSelected(ctx context.Context, to string, order *models.Order) error {
	var body string
	confirm := "✅ Confirm order"
	if order.PaymentMethod == models.PaymentMethodBankTransfer {
		body = fmt.Sprintf("🏦 Please transfer *%s* for order #%s.\n%s\n\nTap *I've paid* once done.",
			s.money(order.Total), order.OrderNumber, s.cfg.PaymentInstructions)
		confirm = "✅ I've paid"
	} else {
		body = fmt.Sprintf("💵 Pay *%s* in cash when order #%s arrives.", s.money(order.Total), order.OrderNumber)
	}

	return s.out.SendButtons(ctx, to, body, []services.Button{
		{ID: BtnConfirmPayment, Title: confirm},
		{ID: BtnCancelOrder, Title: "❌ Cancel"},
	})
}

// OrderPlaced acknowledges a confirmed order, then home.
func (s *Screens) OrderPlaced(ctx context.Context, to string, order *models.Order) error {
	text := fmt.Sprintf("✅ Order #%s placed: *%s*\n\nWe'll notify you when it's ready!",
		order.OrderNumber, s.money(order.Total))
	if err := s.out.SendText(ctx, to, text); err != nil {
		return err
	}
	return s.Home(ctx, to)
}

// OrderCancelled acknowledges a cancellation, then home.
func (s *Screens) OrderCancelled(ctx context.Context, to string, order *models.Order) error {
	if err := s.out.SendText(ctx, to, fmt.Sprintf("❌ Order #%s cancelled.", order.OrderNumber)); err != nil {
		return err
	}
	return s.Home(ctx, to)
}

// NoPendingOrder tells the sender there is nothing to pay for, then home.
func (s *Screens) NoPendingOrder(ctx context.Context, to string) error {
	if err := s.out.SendText(ctx, to, "You have no pending order. Tap *Order* to start one. 🛒"); err != nil {
		return err
	}
	return s.Home(ctx, to)
}

// UnknownItem reports an unrecognised list selection and offers the list again.
func (s *Screens) UnknownItem(ctx context.Context, to string) error {
	if err := s.out.SendText(ctx, to, "❓ I didn't recognize that item. Please try again."); err != nil {
		return err
	}
	return s.OrderList(ctx, to)
}

// InvalidCart reports a catalog cart that could not be turned into an order.
func (s *Screens) InvalidCart(ctx context.Context, to string) error {
	if err := s.out.SendText(ctx, to, "⚠️ We couldn't read that cart. Please try again from the catalog."); err != nil {
		return err
	}
	return s.Home(ctx, to)
}

// RateLimited asks the sender to slow down.
func (s *Screens) RateLimited(ctx context.Context, to string) error {
	return s.out.SendText(ctx, to, "⏳ You're sending messages too quickly. Please wait a moment and try again.")
}

// Unsupported explains which messages are understood, then home.
func (s *Screens) Unsupported(ctx context.Context, to string) error {
	text := "I can only process text messages and button selections right now. Please use the menu options below! 👇"
	if err := s.out.SendText(ctx, to, text); err != nil {
		return err
	}
	return s.Home(ctx, to)
}
