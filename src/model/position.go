package model

import "time"

// Position is an open or closed position as recorded by the position store.
// Env is the normalized paper/live value so positions group across exchanges.
type Position struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      int64       `gorm:"index" json:"user_id"`
	Exchange    Exchange    `gorm:"size:20;index" json:"exchange"`
	AccountType AccountType `gorm:"size:20" json:"account_type"`
	Env         Environment `gorm:"size:10;index;not null" json:"env"`
	Strategy    string      `gorm:"size:40;index" json:"strategy"`
	Symbol      string      `json:"symbol"`
	Side        Side        `gorm:"size:10" json:"side"`
	Quantity    float64     `json:"quantity"`
	EntryPrice  float64     `json:"entry_price"`
	ExitPrice   *float64    `json:"exit_price,omitempty"`
	OpenedAt    time.Time   `json:"opened_at"`
	ClosedAt    *time.Time  `json:"closed_at,omitempty"`
	Status      string      `gorm:"size:50;not null;default:open" json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"
)
