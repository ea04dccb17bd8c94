package models

import (
	"time"
)

// User is a WhatsApp contact that has messaged the bot. Identity is the sender address.
type User struct {
	BaseModel
	WaID         string    `gorm:"uniqueIndex;not null" json:"wa_id"`
	Phone        string    `json:"phone"`
	FirstSeenAt  time.Time `json:"first_seen_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	IsBlocked    bool      `gorm:"not null;default:false" json:"is_blocked"`
	Orders       []Order   `gorm:"foreignKey:UserID" json:"orders,omitempty"`
}
