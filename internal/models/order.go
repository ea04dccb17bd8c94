package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is a step of the order lifecycle.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// Payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
)

// Payment methods a sender can pick during checkout.
const (
	PaymentMethodBankTransfer   = "bank_transfer"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

// Order sources.
const (
	OrderSourceSingleItem = "single_item"
	OrderSourceCatalog    = "catalog"
)

// lifecycle ranks the forward path. Cancelled sits outside it.
var lifecycle = map[OrderStatus]int{
	OrderStatusPendingPayment: 0,
	OrderStatusPlaced:         1,
	OrderStatusConfirmed:      2,
	OrderStatusPreparing:      3,
	OrderStatusReady:          4,
	OrderStatusDelivered:      5,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	if s == OrderStatusCancelled {
		return true
	}
	_, ok := lifecycle[s]
	return ok
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransition reports whether an order in status s may move to next.
// Statuses only move forward; cancelled is reachable from every non-terminal status.
// An unpaid order must pass through placed before any fulfilment stage.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	if s == OrderStatusPendingPayment {
		return next == OrderStatusPlaced
	}
	return lifecycle[next] > lifecycle[s]
}

// Order is a sender's checkout. Money fields are integer minor units.
type Order struct {
	BaseModel
	UserID             uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	WaID               string      `gorm:"index" json:"wa_id"`
	CustomerPhone      string      `json:"customer_phone"`
	OrderNumber        string      `gorm:"uniqueIndex" json:"order_number"`
	Status             OrderStatus `gorm:"type:varchar(32);index" json:"status"`
	Subtotal           int64       `json:"subtotal"`
	Tax                int64       `json:"tax"`
	Total              int64       `json:"total"`
	Currency           string      `json:"currency"`
	PaymentMethod      string      `json:"payment_method"`
	PaymentStatus      string      `json:"payment_status"`
	Source             string      `json:"source"`
	PaymentConfirmedAt *time.Time  `json:"payment_confirmed_at"`
	Items              []OrderItem `json:"items,omitempty"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	LineTotal int64     `json:"line_total"`
}

// Summary is a short label for history listings.
func (o *Order) Summary() string {
	switch len(o.Items) {
	case 0:
		return "Order"
	case 1:
		return o.Items[0].Name
	default:
		return o.Items[0].Name + " +" + strconv.Itoa(len(o.Items)-1) + " more"
	}
}
