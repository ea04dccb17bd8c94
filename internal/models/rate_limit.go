package models

import "time"

// RateWindow mirrors one sender's fixed rate-limit window. It is written for
// observability only and never read back into admission decisions.
type RateWindow struct {
	BaseModel
	WaID         string    `gorm:"not null;uniqueIndex:ux_rate_limits_wa_window,priority:1" json:"wa_id"`
	WindowStart  time.Time `gorm:"not null;uniqueIndex:ux_rate_limits_wa_window,priority:2" json:"window_start"`
	RequestCount int       `json:"request_count"`
}

// TableName keeps the table name used by existing deployments.
func (RateWindow) TableName() string { return "rate_limits" }
