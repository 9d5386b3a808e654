package settings

import (
	"fmt"
	"slices"
	"strings"

	"signalrouter/src/model"

	"github.com/spf13/cast"
)

// UserField names a whitelisted column on the users table.
type UserField string

const (
	UserActiveExchange     UserField = "active_exchange"
	UserTradingMode        UserField = "trading_mode"
	UserViewAccountType    UserField = "view_account_type"
	UserRoutingPolicy      UserField = "routing_policy"
	UserLiveEnabled        UserField = "live_enabled"
	UserBybitEnabled       UserField = "bybit_enabled"
	UserHyperliquidEnabled UserField = "hyperliquid_enabled"
)

// Global fallbacks share their name and bounds with the strategy columns.
var userFallbackFields = map[UserField]Field{
	"percent":           FieldPercent,
	"sl_percent":        FieldSLPercent,
	"tp_percent":        FieldTPPercent,
	"leverage":          FieldLeverage,
	"use_atr":           FieldUseATR,
	"atr_periods":       FieldATRPeriods,
	"atr_multiplier_sl": FieldATRMultiplierSL,
	"atr_trigger_pct":   FieldATRTriggerPct,
	"atr_step_pct":      FieldATRStepPct,
	"order_type":        FieldOrderType,
	"coins_group":       FieldCoinsGroup,
	"direction":         FieldDirection,
}

// UserFields lists every field SetUserField accepts.
func UserFields() []UserField {
	out := []UserField{
		UserActiveExchange,
		UserTradingMode,
		UserViewAccountType,
		UserRoutingPolicy,
		UserLiveEnabled,
		UserBybitEnabled,
		UserHyperliquidEnabled,
	}
	fallback := make([]UserField, 0, len(userFallbackFields))
	for uf := range userFallbackFields {
		fallback = append(fallback, uf)
	}
	slices.Sort(fallback)
	return append(out, fallback...)
}

// UserFieldNames is UserFields joined for help and error text.
func UserFieldNames() string {
	names := make([]string, 0, len(userFallbackFields)+7)
	for _, uf := range UserFields() {
		names = append(names, string(uf))
	}
	return strings.Join(names, ", ")
}

func coerceUserField(field UserField, value any) (any, error) {
	if f, ok := userFallbackFields[field]; ok {
		spec := fieldSpecs[f]
		v, err := coerce(f, spec, value)
		if err != nil {
			return nil, err
		}
		if err := check(f, spec, v); err != nil {
			return nil, err
		}
		return v, nil
	}

	if value == nil {
		return nil, fmt.Errorf("%w: %s cannot be cleared", ErrInvalidValue, field)
	}
	s := strings.ToLower(strings.TrimSpace(cast.ToString(value)))

	switch field {
	case UserActiveExchange:
		if !model.Exchange(s).Valid() {
			return nil, fmt.Errorf("%w: active_exchange %q", ErrInvalidEnum, value)
		}
		return s, nil
	case UserTradingMode:
		m := model.TradingMode(s)
		if !m.Valid() || m == model.ModeGlobal {
			return nil, fmt.Errorf("%w: trading_mode %q", ErrInvalidEnum, value)
		}
		return s, nil
	case UserViewAccountType:
		switch model.AccountType(s) {
		case model.AccountDemo, model.AccountReal, model.AccountTestnet, model.AccountMainnet:
			return s, nil
		}
		return nil, fmt.Errorf("%w: view_account_type %q", ErrInvalidEnum, value)
	case UserRoutingPolicy:
		if !model.RoutingPolicy(s).Valid() {
			return nil, fmt.Errorf("%w: routing_policy %q", ErrInvalidEnum, value)
		}
		return s, nil
	case UserLiveEnabled, UserBybitEnabled, UserHyperliquidEnabled:
		return coerceBool(Field(field), value)
	}

	return nil, fmt.Errorf("%w: user field %q (allowed: %s)", ErrUnsupportedField, field, UserFieldNames())
}
