package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultWhatsAppBaseURL is the Graph API root used for outbound messages.
const DefaultWhatsAppBaseURL = "https://graph.facebook.com/v21.0"

// ErrWhatsAppNotConfigured is returned by every send when credentials are missing.
var ErrWhatsAppNotConfigured = errors.New("whatsapp credentials are not set")

// WhatsAppConfig holds the Cloud API credentials.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	CatalogID     string
	BaseURL       string
}

// WhatsAppService sends messages through the WhatsApp Cloud API.
type WhatsAppService struct {
	cfg      WhatsAppConfig
	client   *http.Client
	messages *MessageLogger
	log      *slog.Logger
}

var _ Messenger = (*WhatsAppService)(nil)

// NewWhatsAppService creates a new WhatsAppService. messages may be nil.
func NewWhatsAppService(cfg WhatsAppConfig, messages *MessageLogger, log *slog.Logger) *WhatsAppService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWhatsAppBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &WhatsAppService{
		cfg:      cfg,
		client:   &http.Client{Timeout: 15 * time.Second},
		messages: messages,
		log:      log,
	}
}

type textPayload struct {
	Body string `json:"body"`
}

type bodyText struct {
	Text string `json:"text"`
}

type replyButton struct {
	Type  string `json:"type"`
	Reply Button `json:"reply"`
}

type interactivePayload struct {
	Type   string   `json:"type"`
	Body   bodyText `json:"body"`
	Action any      `json:"action"`
}

type buttonAction struct {
	Buttons []replyButton `json:"buttons"`
}

type listAction struct {
	Button   string        `json:"button"`
	Sections []ListSection `json:"sections"`
}

type catalogAction struct {
	Name       string            `json:"name"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

type outboundMessage struct {
	MessagingProduct string              `json:"messaging_product"`
	RecipientType    string              `json:"recipient_type"`
	To               string              `json:"to"`
	Type             string              `json:"type"`
	Text             *textPayload        `json:"text,omitempty"`
	Interactive      *interactivePayload `json:"interactive,omitempty"`
}

// SendText sends a plain text message.
func (s *WhatsAppService) SendText(ctx context.Context, to, text string) error {
	body := &textPayload{Body: text}
	return s.deliver(ctx, "text", outboundMessage{To: to, Type: "text", Text: body}, body)
}

// SendButtons sends body with reply buttons, keeping only the first MaxButtons.
func (s *WhatsAppService) SendButtons(ctx context.Context, to, body string, buttons []Button) error {
	if len(buttons) > MaxButtons {
		buttons = buttons[:MaxButtons]
	}
	replies := make([]replyButton, 0, len(buttons))
	for _, b := range buttons {
		replies = append(replies, replyButton{Type: "reply", Reply: b})
	}

	payload := &interactivePayload{
		Type:   "button",
		Body:   bodyText{Text: body},
		Action: buttonAction{Buttons: replies},
	}
	return s.deliver(ctx, "buttons", outboundMessage{To: to, Type: "interactive", Interactive: payload}, payload)
}

// SendList sends a list message opened by buttonText.
func (s *WhatsAppService) SendList(ctx context.Context, to, body, buttonText string, sections []ListSection) error {
	payload := &interactivePayload{
		Type:   "list",
		Body:   bodyText{Text: body},
		Action: listAction{Button: buttonText, Sections: sections},
	}
	return s.deliver(ctx, "list", outboundMessage{To: to, Type: "interactive", Interactive: payload}, payload)
}

// SendCatalog sends the business catalog entry point.
func (s *WhatsAppService) SendCatalog(ctx context.Context, to, body string) error {
	action := catalogAction{Name: "catalog_message"}
	if s.cfg.CatalogID != "" {
		action.Parameters = map[string]string{"catalog_id": s.cfg.CatalogID}
	}
	payload := &interactivePayload{
		Type:   "catalog_message",
		Body:   bodyText{Text: body},
		Action: action,
	}
	return s.deliver(ctx, "catalog", outboundMessage{To: to, Type: "interactive", Interactive: payload}, payload)
}

func (s *WhatsAppService) deliver(ctx context.Context, kind string, msg outboundMessage, content any) error {
	msg.MessagingProduct = "whatsapp"
	msg.RecipientType = "individual"

	err := s.post(ctx, msg)
	if err != nil {
		s.log.Error("whatsapp send failed",
			slog.String("to", msg.To),
			slog.String("type", kind),
			slog.Any("error", err))
	}
	s.messages.Outbound(msg.To, kind, content, err)
	return err
}

func (s *WhatsAppService) post(ctx context.Context, msg outboundMessage) error {
	if s.cfg.AccessToken == "" || s.cfg.PhoneNumberID == "" {
		return ErrWhatsAppNotConfigured
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("whatsapp: encode: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.cfg.BaseURL, s.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("whatsapp: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
