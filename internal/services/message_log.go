package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/example/waorder/internal/database"
	"github.com/example/waorder/internal/models"
)

// MessageLogger appends inbound and outbound messages to the message log when
// enabled. Writes happen in the background and never fail the caller.
type MessageLogger struct {
	enabled bool
	store   database.Store
	bg      *Background
	log     *slog.Logger
}

// NewMessageLogger creates a MessageLogger. A disabled logger drops every entry.
func NewMessageLogger(enabled bool, store database.Store, bg *Background, log *slog.Logger) *MessageLogger {
	return &MessageLogger{enabled: enabled, store: store, bg: bg, log: log}
}

// Enabled reports whether entries are written.
func (m *MessageLogger) Enabled() bool {
	return m != nil && m.enabled
}

// Inbound logs a received message. A non-nil handleErr marks the entry as failed.
func (m *MessageLogger) Inbound(waID, kind string, content any, handleErr error) {
	m.record(waID, models.DirectionInbound, kind, content, handleErr)
}

// Outbound logs a sent message. A non-nil sendErr marks the entry as failed.
func (m *MessageLogger) Outbound(waID, kind string, content any, sendErr error) {
	m.record(waID, models.DirectionOutbound, kind, content, sendErr)
}

func (m *MessageLogger) record(waID, direction, kind string, content any, cause error) {
	if !m.Enabled() {
		return
	}

	raw, err := json.Marshal(content)
	if err != nil {
		m.log.Warn("message log: encode content", slog.String("wa_id", waID), slog.Any("error", err))
		raw = []byte("null")
	}

	entry := &models.MessageLog{
		WaID:        waID,
		Direction:   direction,
		MessageType: kind,
		Content:     raw,
		Status:      models.LogStatusSuccess,
	}
	if cause != nil {
		entry.Status = models.LogStatusError
		entry.ErrorMessage = cause.Error()
	}

	m.bg.Go("message_log.insert", func(ctx context.Context) error {
		return m.store.InsertMessageLog(ctx, entry)
	})
}
