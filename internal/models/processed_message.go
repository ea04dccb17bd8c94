package models

import "time"

// ProcessedMessage records an inbound provider message id that has been handled.
// Rows are write-once; existence means the message must not be handled again.
type ProcessedMessage struct {
	BaseModel
	MessageID   string    `gorm:"uniqueIndex;not null" json:"message_id"`
	WaID        string    `gorm:"index" json:"wa_id"`
	MessageType string    `json:"message_type"`
	ProcessedAt time.Time `json:"processed_at"`
}
