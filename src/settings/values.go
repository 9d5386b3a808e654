package settings

import (
	"signalrouter/src/model"
)

// Overrides is one level of the settings hierarchy with every field either
// inherited or explicitly set.
type Overrides struct {
	Enabled             Opt[bool]
	Percent             Opt[float64]
	SLPercent           Opt[float64]
	TPPercent           Opt[float64]
	Leverage            Opt[int]
	UseATR              Opt[bool]
	ATRPeriods          Opt[int]
	ATRMultiplierSL     Opt[float64]
	ATRTriggerPct       Opt[float64]
	ATRStepPct          Opt[float64]
	BEEnabled           Opt[bool]
	BETriggerPct        Opt[float64]
	PartialTPEnabled    Opt[bool]
	PartialTPTriggerPct Opt[float64]
	PartialTPClosePct   Opt[float64]
	OrderType           Opt[string]
	CoinsGroup          Opt[string]
	Direction           Opt[string]
	TradingMode         Opt[model.TradingMode]
	MinQuality          Opt[int]
}

// Values is a fully populated settings record.
type Values struct {
	Enabled             bool              `json:"enabled"`
	Percent             float64           `json:"percent"`
	SLPercent           float64           `json:"sl_percent"`
	TPPercent           float64           `json:"tp_percent"`
	Leverage            int               `json:"leverage"`
	UseATR              bool              `json:"use_atr"`
	ATRPeriods          int               `json:"atr_periods"`
	ATRMultiplierSL     float64           `json:"atr_multiplier_sl"`
	ATRTriggerPct       float64           `json:"atr_trigger_pct"`
	ATRStepPct          float64           `json:"atr_step_pct"`
	BEEnabled           bool              `json:"be_enabled"`
	BETriggerPct        float64           `json:"be_trigger_pct"`
	PartialTPEnabled    bool              `json:"partial_tp_enabled"`
	PartialTPTriggerPct float64           `json:"partial_tp_trigger_pct"`
	PartialTPClosePct   float64           `json:"partial_tp_close_pct"`
	OrderType           string            `json:"order_type"`
	CoinsGroup          string            `json:"coins_group"`
	Direction           string            `json:"direction"`
	TradingMode         model.TradingMode `json:"trading_mode"`
	MinQuality          int               `json:"min_quality"`
}

// OverridesFromRow converts a stored row. use_atr is stored as 0/1 and any
// non-zero value counts as true. A stored trading_mode of "global" inherits.
func OverridesFromRow(row *model.StrategySetting) Overrides {
	if row == nil {
		return Overrides{}
	}

	o := Overrides{
		Enabled:             FromPtr(row.Enabled),
		Percent:             FromPtr(row.Percent),
		SLPercent:           FromPtr(row.SLPercent),
		TPPercent:           FromPtr(row.TPPercent),
		Leverage:            FromPtr(row.Leverage),
		ATRPeriods:          FromPtr(row.ATRPeriods),
		ATRMultiplierSL:     FromPtr(row.ATRMultiplierSL),
		ATRTriggerPct:       FromPtr(row.ATRTriggerPct),
		ATRStepPct:          FromPtr(row.ATRStepPct),
		BEEnabled:           FromPtr(row.BEEnabled),
		BETriggerPct:        FromPtr(row.BETriggerPct),
		PartialTPEnabled:    FromPtr(row.PartialTPEnabled),
		PartialTPTriggerPct: FromPtr(row.PartialTPTriggerPct),
		PartialTPClosePct:   FromPtr(row.PartialTPClosePct),
		OrderType:           FromPtr(row.OrderType),
		CoinsGroup:          FromPtr(row.CoinsGroup),
		Direction:           FromPtr(row.Direction),
		MinQuality:          FromPtr(row.MinQuality),
	}

	if row.UseATR != nil {
		o.UseATR = Override(*row.UseATR != 0)
	}
	if row.TradingMode != nil && model.TradingMode(*row.TradingMode) != model.ModeGlobal {
		o.TradingMode = Override(model.TradingMode(*row.TradingMode))
	}

	return o
}

// OverridesFromUser builds the global level from the user's fallback columns.
func OverridesFromUser(u *model.User) Overrides {
	if u == nil {
		return Overrides{}
	}

	o := Overrides{
		Percent:         FromPtr(u.Percent),
		SLPercent:       FromPtr(u.SLPercent),
		TPPercent:       FromPtr(u.TPPercent),
		Leverage:        FromPtr(u.Leverage),
		UseATR:          FromPtr(u.UseATR),
		ATRPeriods:      FromPtr(u.ATRPeriods),
		ATRMultiplierSL: FromPtr(u.ATRMultiplierSL),
		ATRTriggerPct:   FromPtr(u.ATRTriggerPct),
		ATRStepPct:      FromPtr(u.ATRStepPct),
		OrderType:       FromPtr(u.OrderType),
		CoinsGroup:      FromPtr(u.CoinsGroup),
		Direction:       FromPtr(u.Direction),
	}
	if u.TradingMode != "" && u.TradingMode != model.ModeGlobal {
		o.TradingMode = Override(u.TradingMode)
	}

	return o
}

// Merge walks layers from most to least specific and bottoms out at defaults.
func Merge(defaults Values, layers ...Overrides) Values {
	var v Values
	v.Enabled = first(layers, func(o Overrides) Opt[bool] { return o.Enabled }).Or(defaults.Enabled)
	v.Percent = first(layers, func(o Overrides) Opt[float64] { return o.Percent }).Or(defaults.Percent)
	v.SLPercent = first(layers, func(o Overrides) Opt[float64] { return o.SLPercent }).Or(defaults.SLPercent)
	v.TPPercent = first(layers, func(o Overrides) Opt[float64] { return o.TPPercent }).Or(defaults.TPPercent)
	v.Leverage = first(layers, func(o Overrides) Opt[int] { return o.Leverage }).Or(defaults.Leverage)
	v.UseATR = first(layers, func(o Overrides) Opt[bool] { return o.UseATR }).Or(defaults.UseATR)
	v.ATRPeriods = first(layers, func(o Overrides) Opt[int] { return o.ATRPeriods }).Or(defaults.ATRPeriods)
	v.ATRMultiplierSL = first(layers, func(o Overrides) Opt[float64] { return o.ATRMultiplierSL }).Or(defaults.ATRMultiplierSL)
	v.ATRTriggerPct = first(layers, func(o Overrides) Opt[float64] { return o.ATRTriggerPct }).Or(defaults.ATRTriggerPct)
	v.ATRStepPct = first(layers, func(o Overrides) Opt[float64] { return o.ATRStepPct }).Or(defaults.ATRStepPct)
	v.BEEnabled = first(layers, func(o Overrides) Opt[bool] { return o.BEEnabled }).Or(defaults.BEEnabled)
	v.BETriggerPct = first(layers, func(o Overrides) Opt[float64] { return o.BETriggerPct }).Or(defaults.BETriggerPct)
	v.PartialTPEnabled = first(layers, func(o Overrides) Opt[bool] { return o.PartialTPEnabled }).Or(defaults.PartialTPEnabled)
	v.PartialTPTriggerPct = first(layers, func(o Overrides) Opt[float64] { return o.PartialTPTriggerPct }).Or(defaults.PartialTPTriggerPct)
	v.PartialTPClosePct = first(layers, func(o Overrides) Opt[float64] { return o.PartialTPClosePct }).Or(defaults.PartialTPClosePct)
	v.OrderType = first(layers, func(o Overrides) Opt[string] { return o.OrderType }).Or(defaults.OrderType)
	v.CoinsGroup = first(layers, func(o Overrides) Opt[string] { return o.CoinsGroup }).Or(defaults.CoinsGroup)
	v.Direction = first(layers, func(o Overrides) Opt[string] { return o.Direction }).Or(defaults.Direction)
	v.TradingMode = first(layers, func(o Overrides) Opt[model.TradingMode] { return o.TradingMode }).Or(defaults.TradingMode)
	v.MinQuality = first(layers, func(o Overrides) Opt[int] { return o.MinQuality }).Or(defaults.MinQuality)

	return v
}

func first[T any](layers []Overrides, get func(Overrides) Opt[T]) Opt[T] {
	for _, l := range layers {
		if o := get(l); o.IsSet() {
			return o
		}
	}
	return Inherit[T]()
}
