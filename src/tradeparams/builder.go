// Package tradeparams turns resolved strategy settings into the numbers an
// order is placed with.
package tradeparams

import (
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"signalrouter/src/model"
	"signalrouter/src/settings"
)

var (
	maxPercent = decimal.NewFromInt(100)
	maxSL      = decimal.NewFromInt(50)
	maxTP      = decimal.NewFromInt(500)
	two        = decimal.NewFromInt(2)

	systemPercent  = decimal.NewFromInt(1)
	systemSL       = decimal.NewFromInt(3)
	systemLeverage = 10
)

// TradeParams is what the order collaborator receives for one target.
type TradeParams struct {
	Symbol      string            `json:"symbol"`
	Strategy    string            `json:"strategy"`
	Side        model.Side        `json:"side"`
	Exchange    model.Exchange    `json:"exchange"`
	AccountType model.AccountType `json:"account_type"`

	Percent   decimal.Decimal `json:"percent"`
	SLPercent decimal.Decimal `json:"sl_percent"`
	TPPercent decimal.Decimal `json:"tp_percent"`
	Leverage  int             `json:"leverage"`
	OrderType string          `json:"order_type"`

	UseATR          bool            `json:"use_atr"`
	ATRPeriods      int             `json:"atr_periods"`
	ATRMultiplierSL decimal.Decimal `json:"atr_multiplier_sl"`
	ATRTriggerPct   decimal.Decimal `json:"atr_trigger_pct"`
	ATRStepPct      decimal.Decimal `json:"atr_step_pct"`

	BEEnabled           bool            `json:"be_enabled"`
	BETriggerPct        decimal.Decimal `json:"be_trigger_pct"`
	PartialTPEnabled    bool            `json:"partial_tp_enabled"`
	PartialTPTriggerPct decimal.Decimal `json:"partial_tp_trigger_pct"`
	PartialTPClosePct   decimal.Decimal `json:"partial_tp_close_pct"`
}

type Builder struct {
	coins *CoinTable
	log   *logger.Entry
}

func NewBuilder(coins *CoinTable, log *logger.Entry) *Builder {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &Builder{coins: coins, log: log.WithField("component", "TradeParamBuilder")}
}

// GetTradeParams never fails. Percent, SL and TP each walk their own chain
// (side, side-agnostic strategy value, user global, coin table, default) and
// skip candidates that fail the sanity bounds. TP must also exceed the chosen
// SL; when nothing qualifies TP becomes twice the SL.
func (b *Builder) GetTradeParams(
	user *model.User,
	eff *settings.Effective,
	symbol string,
	strategy string,
	side string,
	exchange model.Exchange,
	accountType model.AccountType,
) TradeParams {

	if eff == nil {
		eff = &settings.Effective{Strategy: strategy, Defaults: settings.GenericDefaults}
	}

	s, err := settings.ParseSide(side)
	if err != nil {
		b.log.WithFields(map[string]interface{}{
			"strategy": strategy,
			"symbol":   symbol,
			"side":     side,
		}).Warn("Unknown side, using side-agnostic settings")
		s = model.SideAll
	}

	global := eff.GlobalOverrides
	if user != nil {
		global = settings.OverridesFromUser(user)
	}
	coin := b.coins.For(symbol)
	levels := []settings.Overrides{eff.SideOverrides(s), eff.GeneralOverrides, global, coin}
	def := eff.Defaults

	if exchange == "" {
		exchange = eff.Exchange
	}
	if accountType == "" {
		accountType = eff.AccountType
	}

	params := TradeParams{
		Symbol:      symbol,
		Strategy:    strategy,
		Side:        s,
		Exchange:    exchange,
		AccountType: accountType,
	}

	params.Percent = pick(
		candidates(levels, def.Percent, func(o settings.Overrides) settings.Opt[float64] { return o.Percent }),
		within(maxPercent),
		systemPercent,
	)

	params.SLPercent = pick(
		candidates(levels, def.SLPercent, func(o settings.Overrides) settings.Opt[float64] { return o.SLPercent }),
		within(maxSL),
		systemSL,
	)

	sl := params.SLPercent
	params.TPPercent = pick(
		candidates(levels, def.TPPercent, func(o settings.Overrides) settings.Opt[float64] { return o.TPPercent }),
		func(v decimal.Decimal) bool { return within(maxTP)(v) && v.GreaterThan(sl) },
		sl.Mul(two),
	)

	params.Leverage = pickLeverage(levels, def.Leverage)

	v := settings.Merge(def, eff.SideOverrides(s), eff.GeneralOverrides, global)
	params.OrderType = v.OrderType
	params.UseATR = v.UseATR
	params.ATRPeriods = v.ATRPeriods
	params.ATRMultiplierSL = decimal.NewFromFloat(v.ATRMultiplierSL)
	params.ATRTriggerPct = decimal.NewFromFloat(v.ATRTriggerPct)
	params.ATRStepPct = decimal.NewFromFloat(v.ATRStepPct)
	params.BEEnabled = v.BEEnabled
	params.BETriggerPct = decimal.NewFromFloat(v.BETriggerPct)
	params.PartialTPEnabled = v.PartialTPEnabled
	params.PartialTPTriggerPct = decimal.NewFromFloat(v.PartialTPTriggerPct)
	params.PartialTPClosePct = decimal.NewFromFloat(v.PartialTPClosePct)

	return params
}

func candidates(levels []settings.Overrides, def float64, get func(settings.Overrides) settings.Opt[float64]) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(levels)+1)
	for _, l := range levels {
		if v, ok := get(l).Get(); ok {
			out = append(out, decimal.NewFromFloat(v))
		}
	}
	return append(out, decimal.NewFromFloat(def))
}

func pick(cands []decimal.Decimal, ok func(decimal.Decimal) bool, fallback decimal.Decimal) decimal.Decimal {
	for _, c := range cands {
		if ok(c) {
			return c
		}
	}
	return fallback
}

// within accepts (0, upper].
func within(upper decimal.Decimal) func(decimal.Decimal) bool {
	return func(v decimal.Decimal) bool {
		return v.IsPositive() && v.LessThanOrEqual(upper)
	}
}

func pickLeverage(levels []settings.Overrides, def int) int {
	for _, l := range levels {
		if v, ok := l.Leverage.Get(); ok && v >= 1 && v <= 100 {
			return v
		}
	}
	if def >= 1 && def <= 100 {
		return def
	}
	return systemLeverage
}
