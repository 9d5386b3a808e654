package model

import "time"

// User is a chat user of the bot. ID is the chat user id and is never generated here.
// Nullable fallback columns are the "global" level of the settings hierarchy.
type User struct {
	ID int64 `gorm:"primaryKey;autoIncrement:false" json:"id"`

	ActiveExchange     Exchange      `gorm:"size:20;not null;default:bybit" json:"active_exchange"`
	TradingMode        TradingMode   `gorm:"size:20;not null;default:demo" json:"trading_mode"`
	ViewAccountType    AccountType   `gorm:"size:20" json:"view_account_type"`
	BybitEnabled       bool          `gorm:"not null;default:true" json:"bybit_enabled"`
	HyperliquidEnabled bool          `gorm:"not null;default:false" json:"hyperliquid_enabled"`
	LiveEnabled        bool          `gorm:"not null;default:false" json:"live_enabled"`
	RoutingPolicy      RoutingPolicy `gorm:"size:40" json:"routing_policy"`

	Percent         *float64 `gorm:"column:percent" json:"percent,omitempty"`
	SLPercent       *float64 `gorm:"column:sl_percent" json:"sl_percent,omitempty"`
	TPPercent       *float64 `gorm:"column:tp_percent" json:"tp_percent,omitempty"`
	Leverage        *int     `gorm:"column:leverage" json:"leverage,omitempty"`
	UseATR          *bool    `gorm:"column:use_atr" json:"use_atr,omitempty"`
	ATRPeriods      *int     `gorm:"column:atr_periods" json:"atr_periods,omitempty"`
	ATRMultiplierSL *float64 `gorm:"column:atr_multiplier_sl" json:"atr_multiplier_sl,omitempty"`
	ATRTriggerPct   *float64 `gorm:"column:atr_trigger_pct" json:"atr_trigger_pct,omitempty"`
	ATRStepPct      *float64 `gorm:"column:atr_step_pct" json:"atr_step_pct,omitempty"`
	OrderType       *string  `gorm:"column:order_type;size:20" json:"order_type,omitempty"`
	CoinsGroup      *string  `gorm:"column:coins_group;size:40" json:"coins_group,omitempty"`
	Direction       *string  `gorm:"column:direction;size:10" json:"direction,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StrategySettings []StrategySetting `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Credentials      []UserCredential  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// EffectiveRoutingPolicy returns the stored policy. When unset it falls back
// to fallback, then to DefaultRoutingPolicy. The result is not validated.
func (u *User) EffectiveRoutingPolicy(fallback RoutingPolicy) RoutingPolicy {
	switch {
	case u.RoutingPolicy != "":
		return u.RoutingPolicy
	case fallback != "":
		return fallback
	}
	return DefaultRoutingPolicy
}

// ExchangeEnabled reports the per-exchange enablement flag.
func (u *User) ExchangeEnabled(e Exchange) bool {
	switch e {
	case ExchangeBybit:
		return u.BybitEnabled
	case ExchangeHyperliquid:
		return u.HyperliquidEnabled
	}
	return false
}
