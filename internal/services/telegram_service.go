package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/waorder/internal/models"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramService sends staff notifications to a Telegram chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	symbol      string
	baseURL     string
	client      *http.Client
	log         *slog.Logger
}

// NewTelegramService creates a new TelegramService. Amounts are rendered with symbol.
func NewTelegramService(botToken, adminChatID, symbol string, log *slog.Logger) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		symbol:      symbol,
		baseURL:     defaultTelegramBaseURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

// Configured reports whether notifications can be delivered.
func (s *TelegramService) Configured() bool {
	return s.botToken != "" && s.adminChatID != ""
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends an HTML message to chatID.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		s.log.Debug("telegram bot token not configured")
		return nil
	}

	body, err := json.Marshal(telegramMessage{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		s.log.Debug("telegram admin chat not configured")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// NotifyOrderPlaced tells the staff chat that a customer confirmed payment.
func (s *TelegramService) NotifyOrderPlaced(ctx context.Context, order *models.Order) error {
	if !s.Configured() {
		return nil
	}
	return s.SendToAdmin(ctx, FormatOrderNotification(order, s.symbol))
}

// FormatOrderNotification renders the staff message for a placed order.
func FormatOrderNotification(order *models.Order, symbol string) string {
	var items strings.Builder
	for i, item := range order.Items {
		fmt.Fprintf(&items, "%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			html.EscapeString(item.Name),
			item.Quantity,
			FormatMoney(item.UnitPrice, symbol),
			FormatMoney(item.LineTotal, symbol),
		)
	}

	payment := "Bank transfer"
	if order.PaymentMethod == models.PaymentMethodCashOnDelivery {
		payment = "Cash on delivery"
	}

	message := fmt.Sprintf(`<b>🛒 NEW ORDER!</b>
<b>📋 Order:</b> #%s
<b>📞 Customer:</b> %s
<b>📦 Items:</b>
%s
<b>💰 Total:</b> %s
<b>💳 Payment:</b> %s
━━━━━━━━━━━━━━━━━━`,
		order.OrderNumber,
		html.EscapeString(order.CustomerPhone),
		items.String(),
		FormatMoney(order.Total, symbol),
		payment,
	)

	return strings.TrimSpace(message)
}
