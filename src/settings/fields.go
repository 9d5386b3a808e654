package settings

import (
	"signalrouter/src/model"
)

// Field names a strategy setting column. The string value is the column name.
type Field string

const (
	FieldEnabled             Field = "enabled"
	FieldPercent             Field = "percent"
	FieldSLPercent           Field = "sl_percent"
	FieldTPPercent           Field = "tp_percent"
	FieldLeverage            Field = "leverage"
	FieldUseATR              Field = "use_atr"
	FieldATRPeriods          Field = "atr_periods"
	FieldATRMultiplierSL     Field = "atr_multiplier_sl"
	FieldATRTriggerPct       Field = "atr_trigger_pct"
	FieldATRStepPct          Field = "atr_step_pct"
	FieldBEEnabled           Field = "be_enabled"
	FieldBETriggerPct        Field = "be_trigger_pct"
	FieldPartialTPEnabled    Field = "partial_tp_enabled"
	FieldPartialTPTriggerPct Field = "partial_tp_trigger_pct"
	FieldPartialTPClosePct   Field = "partial_tp_close_pct"
	FieldOrderType           Field = "order_type"
	FieldCoinsGroup          Field = "coins_group"
	FieldDirection           Field = "direction"
	FieldTradingMode         Field = "trading_mode"
	FieldMinQuality          Field = "min_quality"
)

// Kind is the value type a field accepts.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
)

// fieldSpec binds a Field to its column type, bounds and row accessors.
// get returns nil for NULL; set receives an already coerced value or nil.
type fieldSpec struct {
	kind Kind
	min  float64
	max  float64
	rule string // validator tag for strings
	get  func(*model.StrategySetting) any
	set  func(*model.StrategySetting, any)
}

var fieldSpecs = map[Field]fieldSpec{
	FieldEnabled: {
		kind: KindBool,
		get:  func(r *model.StrategySetting) any { return deref(r.Enabled) },
		set:  func(r *model.StrategySetting, v any) { r.Enabled = ptrOf[bool](v) },
	},
	FieldPercent: {
		kind: KindFloat,
		min:  0.01,
		max:  100,
		get:  func(r *model.StrategySetting) any { return deref(r.Percent) },
		set:  func(r *model.StrategySetting, v any) { r.Percent = ptrOf[float64](v) },
	},
	FieldSLPercent: {
		kind: KindFloat,
		min:  0.1,
		max:  50,
		get:  func(r *model.StrategySetting) any { return deref(r.SLPercent) },
		set:  func(r *model.StrategySetting, v any) { r.SLPercent = ptrOf[float64](v) },
	},
	FieldTPPercent: {
		kind: KindFloat,
		min:  0.1,
		max:  500,
		get:  func(r *model.StrategySetting) any { return deref(r.TPPercent) },
		set:  func(r *model.StrategySetting, v any) { r.TPPercent = ptrOf[float64](v) },
	},
	FieldLeverage: {
		kind: KindInt,
		min:  1,
		max:  100,
		get:  func(r *model.StrategySetting) any { return deref(r.Leverage) },
		set:  func(r *model.StrategySetting, v any) { r.Leverage = ptrOf[int](v) },
	},
	// use_atr is a bool on the way in and an int 0/1 in the column.
	FieldUseATR: {
		kind: KindBool,
		get: func(r *model.StrategySetting) any {
			if r.UseATR == nil {
				return nil
			}
			return *r.UseATR != 0
		},
		set: func(r *model.StrategySetting, v any) {
			if v == nil {
				r.UseATR = nil
				return
			}
			i := 0
			if v.(bool) {
				i = 1
			}
			r.UseATR = &i
		},
	},
	FieldATRPeriods: {
		kind: KindInt,
		min:  1,
		max:  200,
		get:  func(r *model.StrategySetting) any { return deref(r.ATRPeriods) },
		set:  func(r *model.StrategySetting, v any) { r.ATRPeriods = ptrOf[int](v) },
	},
	FieldATRMultiplierSL: {
		kind: KindFloat,
		min:  0.1,
		max:  10,
		get:  func(r *model.StrategySetting) any { return deref(r.ATRMultiplierSL) },
		set:  func(r *model.StrategySetting, v any) { r.ATRMultiplierSL = ptrOf[float64](v) },
	},
	FieldATRTriggerPct: {
		kind: KindFloat,
		min:  0.01,
		max:  100,
		get:  func(r *model.StrategySetting) any { return deref(r.ATRTriggerPct) },
		set:  func(r *model.StrategySetting, v any) { r.ATRTriggerPct = ptrOf[float64](v) },
	},
	FieldATRStepPct: {
		kind: KindFloat,
		min:  0.01,
		max:  100,
		get:  func(r *model.StrategySetting) any { return deref(r.ATRStepPct) },
		set:  func(r *model.StrategySetting, v any) { r.ATRStepPct = ptrOf[float64](v) },
	},
	FieldBEEnabled: {
		kind: KindBool,
		get:  func(r *model.StrategySetting) any { return deref(r.BEEnabled) },
		set:  func(r *model.StrategySetting, v any) { r.BEEnabled = ptrOf[bool](v) },
	},
	FieldBETriggerPct: {
		kind: KindFloat,
		min:  0.01,
		max:  100,
		get:  func(r *model.StrategySetting) any { return deref(r.BETriggerPct) },
		set:  func(r *model.StrategySetting, v any) { r.BETriggerPct = ptrOf[float64](v) },
	},
	FieldPartialTPEnabled: {
		kind: KindBool,
		get:  func(r *model.StrategySetting) any { return deref(r.PartialTPEnabled) },
		set:  func(r *model.StrategySetting, v any) { r.PartialTPEnabled = ptrOf[bool](v) },
	},
	FieldPartialTPTriggerPct: {
		kind: KindFloat,
		min:  0.01,
		max:  500,
		get:  func(r *model.StrategySetting) any { return deref(r.PartialTPTriggerPct) },
		set:  func(r *model.StrategySetting, v any) { r.PartialTPTriggerPct = ptrOf[float64](v) },
	},
	FieldPartialTPClosePct: {
		kind: KindFloat,
		min:  1,
		max:  100,
		get:  func(r *model.StrategySetting) any { return deref(r.PartialTPClosePct) },
		set:  func(r *model.StrategySetting, v any) { r.PartialTPClosePct = ptrOf[float64](v) },
	},
	FieldOrderType: {
		kind: KindString,
		rule: "oneof=market limit",
		get:  func(r *model.StrategySetting) any { return deref(r.OrderType) },
		set:  func(r *model.StrategySetting, v any) { r.OrderType = ptrOf[string](v) },
	},
	FieldCoinsGroup: {
		kind: KindString,
		rule: "min=1,max=40",
		get:  func(r *model.StrategySetting) any { return deref(r.CoinsGroup) },
		set:  func(r *model.StrategySetting, v any) { r.CoinsGroup = ptrOf[string](v) },
	},
	FieldDirection: {
		kind: KindString,
		rule: "oneof=all long short",
		get:  func(r *model.StrategySetting) any { return deref(r.Direction) },
		set:  func(r *model.StrategySetting, v any) { r.Direction = ptrOf[string](v) },
	},
	FieldTradingMode: {
		kind: KindString,
		rule: "oneof=global demo real both testnet mainnet",
		get:  func(r *model.StrategySetting) any { return deref(r.TradingMode) },
		set:  func(r *model.StrategySetting, v any) { r.TradingMode = ptrOf[string](v) },
	},
	FieldMinQuality: {
		kind: KindInt,
		min:  0,
		max:  100,
		get:  func(r *model.StrategySetting) any { return deref(r.MinQuality) },
		set:  func(r *model.StrategySetting, v any) { r.MinQuality = ptrOf[int](v) },
	},
}

// ParseField returns the Field for a column name known to any strategy.
func ParseField(name string) (Field, bool) {
	f := Field(name)
	_, ok := fieldSpecs[f]
	return f, ok
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func ptrOf[T any](v any) *T {
	if v == nil {
		return nil
	}
	t := v.(T)
	return &t
}
