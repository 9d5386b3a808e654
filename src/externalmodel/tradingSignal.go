package externalmodel

import "time"

// TradingSignal is a parsed signal written by the signal ingestion service.
// The table lives in the read-only database.
type TradingSignal struct {
	ID         uint       `gorm:"primaryKey;column:id" json:"id"`
	Strategy   string     `gorm:"column:strategy" json:"strategy"`
	Symbol     string     `gorm:"column:symbol" json:"symbol"`
	Action     string     `gorm:"column:action" json:"action"` // Buy / Sell / Long / Short
	Price      *float64   `gorm:"column:price" json:"price,omitempty"`
	Quality    *int       `gorm:"column:quality" json:"quality,omitempty"`
	Message    string     `gorm:"column:message" json:"message"`
	ReceivedAt *time.Time `gorm:"column:received_at" json:"received_at,omitempty"`
}

// TableName Ensures that GORM uses the exact table name from the database.
func (TradingSignal) TableName() string {
	return "trade_tradingsignal"
}
