package models

// Message log directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Message log statuses.
const (
	LogStatusSuccess = "success"
	LogStatusError   = "error"
)

// MessageLog is an optional audit row for one inbound or outbound chat message.
type MessageLog struct {
	BaseModel
	WaID         string `gorm:"index" json:"wa_id"`
	Direction    string `json:"direction"`
	MessageType  string `json:"message_type"`
	Content      []byte `gorm:"type:jsonb" json:"content"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}
