package settings

import (
	"sort"

	"signalrouter/src/model"
)

// Strategy describes one registered signal source: the columns it may store
// and the constants that bottom out the fallback chain.
type Strategy struct {
	Name     string
	Fields   []Field
	Defaults Values
}

// Allows reports whether f is on the strategy's whitelist.
func (s Strategy) Allows(f Field) bool {
	for _, allowed := range s.Fields {
		if allowed == f {
			return true
		}
	}
	return false
}

var commonFields = []Field{
	FieldEnabled,
	FieldPercent,
	FieldSLPercent,
	FieldTPPercent,
	FieldLeverage,
	FieldUseATR,
	FieldATRPeriods,
	FieldATRMultiplierSL,
	FieldATRTriggerPct,
	FieldATRStepPct,
	FieldBEEnabled,
	FieldBETriggerPct,
	FieldPartialTPEnabled,
	FieldPartialTPTriggerPct,
	FieldPartialTPClosePct,
	FieldOrderType,
	FieldDirection,
	FieldTradingMode,
}

// GenericDefaults is the default record for strategies without their own constants.
var GenericDefaults = Values{
	Enabled:             false,
	Percent:             1,
	SLPercent:           3,
	TPPercent:           8,
	Leverage:            10,
	UseATR:              false,
	ATRPeriods:          7,
	ATRMultiplierSL:     0.5,
	ATRTriggerPct:       2,
	ATRStepPct:          0.5,
	BEEnabled:           false,
	BETriggerPct:        1,
	PartialTPEnabled:    false,
	PartialTPTriggerPct: 2,
	PartialTPClosePct:   50,
	OrderType:           "market",
	CoinsGroup:          "all",
	Direction:           "all",
	TradingMode:         model.ModeGlobal,
	MinQuality:          0,
}

func withFields(extra ...Field) []Field {
	out := make([]Field, 0, len(commonFields)+len(extra))
	out = append(out, commonFields...)
	return append(out, extra...)
}

func withDefaults(fn func(v *Values)) Values {
	v := GenericDefaults
	fn(&v)
	return v
}

var registry = map[string]Strategy{
	"oi": {
		Name:     "oi",
		Fields:   withFields(FieldCoinsGroup),
		Defaults: withDefaults(func(v *Values) { v.SLPercent = 3; v.TPPercent = 8 }),
	},
	"rsi_bb": {
		Name:     "rsi_bb",
		Fields:   withFields(FieldCoinsGroup),
		Defaults: withDefaults(func(v *Values) { v.SLPercent = 2; v.TPPercent = 4 }),
	},
	"scryptomera": {
		Name:   "scryptomera",
		Fields: withFields(FieldCoinsGroup),
		Defaults: withDefaults(func(v *Values) {
			v.Percent = 2
			v.SLPercent = 5
			v.TPPercent = 10
		}),
	},
	"scalper": {
		Name:   "scalper",
		Fields: withFields(FieldCoinsGroup),
		Defaults: withDefaults(func(v *Values) {
			v.SLPercent = 1
			v.TPPercent = 2
			v.Leverage = 20
		}),
	},
	"elcaro": {
		Name:   "elcaro",
		Fields: withFields(FieldMinQuality),
		Defaults: withDefaults(func(v *Values) {
			v.UseATR = true
			v.ATRPeriods = 14
			v.MinQuality = 50
		}),
	},
	"fibonacci": {
		Name:     "fibonacci",
		Fields:   withFields(FieldMinQuality),
		Defaults: withDefaults(func(v *Values) { v.SLPercent = 2.5; v.TPPercent = 6 }),
	},
}

// Lookup returns the registered strategy by name.
func Lookup(name string) (Strategy, bool) {
	s, ok := registry[name]
	return s, ok
}

// Strategies lists the registered strategy names in sorted order.
func Strategies() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// generic is the fallback schema used when resolving an unregistered name.
func generic(name string) Strategy {
	return Strategy{Name: name, Fields: commonFields, Defaults: GenericDefaults}
}
