package handlers

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/example/waorder/internal/bot"
	"github.com/example/waorder/internal/services"
)

type webhookPayload struct {
	Object string         `json:"object"`
	Entry  []webhookEntry `json:"entry"`
}

type webhookEntry struct {
	ID      string          `json:"id"`
	Changes []webhookChange `json:"changes"`
}

type webhookChange struct {
	Field string      `json:"field"`
	Value changeValue `json:"value"`
}

type changeValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []webhookContact `json:"contacts"`
	Messages         []webhookMessage `json:"messages"`
}

type webhookContact struct {
	WaID string `json:"wa_id"`
}

type webhookMessage struct {
	ID          string              `json:"id" validate:"required"`
	From        string              `json:"from" validate:"required"`
	Type        string              `json:"type" validate:"required"`
	Text        *webhookText        `json:"text,omitempty"`
	Interactive *webhookInteractive `json:"interactive,omitempty"`
	Button      *webhookButton      `json:"button,omitempty"`
	Order       *webhookOrder       `json:"order,omitempty"`
}

type webhookText struct {
	Body string `json:"body"`
}

type webhookReply struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title"`
}

type webhookInteractive struct {
	Type        string        `json:"type"`
	ButtonReply *webhookReply `json:"button_reply,omitempty"`
	ListReply   *webhookReply `json:"list_reply,omitempty"`
}

type webhookButton struct {
	Payload string `json:"payload"`
	Text    string `json:"text"`
}

type webhookOrder struct {
	CatalogID    string               `json:"catalog_id"`
	ProductItems []webhookProductItem `json:"product_items" validate:"required,min=1,dive"`
}

type webhookProductItem struct {
	ProductRetailerID string          `json:"product_retailer_id" validate:"required"`
	Quantity          int             `json:"quantity" validate:"gte=1"`
	ItemPrice         decimal.Decimal `json:"item_price"`
	Currency          string          `json:"currency"`
}

var payloadValidator = validator.New()

// parseInbound normalises the first message of a webhook delivery. It returns
// false when the delivery carries no usable message (status callbacks, malformed
// shapes). A JSON syntax error is returned as an error.
func parseInbound(body []byte) (bot.Inbound, bool, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return bot.Inbound{}, false, err
	}

	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return bot.Inbound{}, false, nil
	}
	value := payload.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return bot.Inbound{}, false, nil
	}

	msg := value.Messages[0]
	if err := payloadValidator.Struct(msg); err != nil {
		return bot.Inbound{}, false, nil
	}

	event, ok := toEvent(msg)
	if !ok {
		return bot.Inbound{}, false, nil
	}

	return bot.Inbound{
		MessageID: msg.ID,
		From:      msg.From,
		Phone:     msg.From,
		Event:     event,
	}, true, nil
}

func toEvent(msg webhookMessage) (bot.Event, bool) {
	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return nil, false
		}
		return bot.TextEvent{Text: strings.TrimSpace(msg.Text.Body)}, true

	case "interactive":
		if msg.Interactive == nil {
			return nil, false
		}
		switch msg.Interactive.Type {
		case "button_reply":
			reply := msg.Interactive.ButtonReply
			if reply == nil || payloadValidator.Struct(reply) != nil {
				return nil, false
			}
			return bot.ButtonEvent{ID: reply.ID, Title: reply.Title}, true
		case "list_reply":
			reply := msg.Interactive.ListReply
			if reply == nil || payloadValidator.Struct(reply) != nil {
				return nil, false
			}
			return bot.ListEvent{ID: reply.ID, Title: reply.Title}, true
		default:
			return bot.UnsupportedEvent{Type: "interactive/" + msg.Interactive.Type}, true
		}

	case "button":
		if msg.Button == nil {
			return nil, false
		}
		return bot.ButtonEvent{ID: msg.Button.Payload, Title: msg.Button.Text}, true

	case "order":
		if msg.Order == nil || payloadValidator.Struct(msg.Order) != nil {
			return nil, false
		}
		lines := lo.Map(msg.Order.ProductItems, func(item webhookProductItem, _ int) services.OrderLine {
			return services.OrderLine{
				ProductID: item.ProductRetailerID,
				UnitPrice: toMinorUnits(item.ItemPrice),
				Quantity:  item.Quantity,
			}
		})
		return bot.CatalogOrderEvent{CatalogID: msg.Order.CatalogID, Lines: lines}, true

	default:
		return bot.UnsupportedEvent{Type: msg.Type}, true
	}
}

// toMinorUnits converts a major-unit price such as 450.5 to 45050. Prices outside
// [0, services.MaxUnitPrice] map to -1, which order validation rejects.
func toMinorUnits(price decimal.Decimal) int64 {
	minor := price.Shift(2).Round(0)
	if minor.IsNegative() || minor.GreaterThan(decimal.NewFromInt(services.MaxUnitPrice)) {
		return -1
	}
	return minor.IntPart()
}
