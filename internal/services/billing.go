package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/waorder/internal/models"
)

// FormatMoney renders an amount in minor units as "Rs 1,234.50".
func FormatMoney(minor int64, symbol string) string {
	amount := decimal.New(minor, -2)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if symbol == "" {
		return sign + b.String() + "." + frac
	}
	return symbol + " " + sign + b.String() + "." + frac
}

// RenderBill is the itemised bill sent after an order is created.
func RenderBill(order *models.Order, symbol string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 *Order #%s*\n\n", order.OrderNumber)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "• %s x%d @ %s = %s\n",
			item.Name, item.Quantity,
			FormatMoney(item.UnitPrice, symbol),
			FormatMoney(item.LineTotal, symbol))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", FormatMoney(order.Subtotal, symbol))
	if order.Tax != 0 {
		fmt.Fprintf(&b, "Tax: %s\n", FormatMoney(order.Tax, symbol))
	}
	fmt.Fprintf(&b, "*Total: %s*", FormatMoney(order.Total, symbol))
	return b.String()
}
