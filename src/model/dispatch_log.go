package model

import "time"

const (
	DispatchStatusSent    = "sent"
	DispatchStatusSkipped = "skipped"
	DispatchStatusError   = "error"
)

// DispatchLog records what was handed to the order collaborator for one target.
type DispatchLog struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	DispatchID string `gorm:"size:36;index" json:"dispatch_id"`
	SignalID   uint   `gorm:"index" json:"signal_id"`
	UserID     int64  `gorm:"index" json:"user_id"`
	Strategy   string `gorm:"size:40" json:"strategy"`
	Symbol     string `gorm:"size:100" json:"symbol"`
	Side       Side   `gorm:"size:10" json:"side"`

	Exchange    Exchange    `gorm:"size:20" json:"exchange"`
	Env         Environment `gorm:"size:10" json:"env"`
	AccountType AccountType `gorm:"size:20" json:"account_type"`

	Percent   float64 `json:"percent"`
	SLPercent float64 `json:"sl_percent"`
	TPPercent float64 `json:"tp_percent"`
	Leverage  int     `json:"leverage"`
	UseATR    bool    `json:"use_atr"`

	Status       string  `gorm:"size:20;not null" json:"status"`
	Reason       string  `gorm:"size:255" json:"reason"`
	ErrorMessage *string `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (DispatchLog) TableName() string {
	return "dispatch_logs"
}
