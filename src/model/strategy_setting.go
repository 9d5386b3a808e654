package model

import "time"

// StrategySetting holds the per (user, strategy, side, exchange) overrides.
// Every payload column is nullable: NULL means "inherit from the next level".
type StrategySetting struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	UserID   int64    `gorm:"not null;uniqueIndex:idx_strategy_setting_key,priority:1" json:"user_id"`
	Strategy string   `gorm:"size:40;not null;uniqueIndex:idx_strategy_setting_key,priority:2" json:"strategy"`
	Side     Side     `gorm:"size:10;not null;uniqueIndex:idx_strategy_setting_key,priority:3" json:"side"`
	Exchange Exchange `gorm:"size:20;not null;uniqueIndex:idx_strategy_setting_key,priority:4" json:"exchange"`

	Enabled         *bool    `gorm:"column:enabled" json:"enabled,omitempty"`
	Percent         *float64 `gorm:"column:percent" json:"percent,omitempty"`
	SLPercent       *float64 `gorm:"column:sl_percent" json:"sl_percent,omitempty"`
	TPPercent       *float64 `gorm:"column:tp_percent" json:"tp_percent,omitempty"`
	Leverage        *int     `gorm:"column:leverage" json:"leverage,omitempty"`
	UseATR          *int     `gorm:"column:use_atr" json:"use_atr,omitempty"`
	ATRPeriods      *int     `gorm:"column:atr_periods" json:"atr_periods,omitempty"`
	ATRMultiplierSL *float64 `gorm:"column:atr_multiplier_sl" json:"atr_multiplier_sl,omitempty"`
	ATRTriggerPct   *float64 `gorm:"column:atr_trigger_pct" json:"atr_trigger_pct,omitempty"`
	ATRStepPct      *float64 `gorm:"column:atr_step_pct" json:"atr_step_pct,omitempty"`

	BEEnabled    *bool    `gorm:"column:be_enabled" json:"be_enabled,omitempty"`
	BETriggerPct *float64 `gorm:"column:be_trigger_pct" json:"be_trigger_pct,omitempty"`

	PartialTPEnabled    *bool    `gorm:"column:partial_tp_enabled" json:"partial_tp_enabled,omitempty"`
	PartialTPTriggerPct *float64 `gorm:"column:partial_tp_trigger_pct" json:"partial_tp_trigger_pct,omitempty"`
	PartialTPClosePct   *float64 `gorm:"column:partial_tp_close_pct" json:"partial_tp_close_pct,omitempty"`

	OrderType   *string `gorm:"column:order_type;size:20" json:"order_type,omitempty"`
	CoinsGroup  *string `gorm:"column:coins_group;size:40" json:"coins_group,omitempty"`
	Direction   *string `gorm:"column:direction;size:10" json:"direction,omitempty"`
	TradingMode *string `gorm:"column:trading_mode;size:20" json:"trading_mode,omitempty"`
	MinQuality  *int    `gorm:"column:min_quality" json:"min_quality,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StrategySetting) TableName() string {
	return "strategy_settings"
}
