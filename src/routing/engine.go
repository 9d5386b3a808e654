// Package routing decides which execution targets a signal fans out to.
package routing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"signalrouter/src/accounts"
	"signalrouter/src/metrics"
	"signalrouter/src/model"

	logger "github.com/sirupsen/logrus"
)

// MaxTargets is two exchanges times two environments.
const MaxTargets = 4

// ErrInvalidPolicy is returned for a stored or requested policy outside the known set.
var ErrInvalidPolicy = errors.New("invalid routing policy")

// UserLoader returns the user config. Unknown users come back with defaults.
type UserLoader interface {
	User(ctx context.Context, userID int64) (*model.User, error)
}

// CapabilityInspector reports which account types have usable credentials.
type CapabilityInspector interface {
	AccountTypesOn(ctx context.Context, userID int64, exchange model.Exchange) ([]model.AccountType, error)
	StrategyAccountTypesOn(ctx context.Context, userID int64, strategy string, exchange model.Exchange) ([]model.AccountType, error)
}

// TargetProvider supplies the explicit target list of the custom policy.
type TargetProvider interface {
	Targets(ctx context.Context, userID int64, strategy string) ([]model.ExecutionTarget, error)
}

type Engine struct {
	users     UserLoader
	inspector CapabilityInspector
	custom    TargetProvider
	config    Config
	metrics   *metrics.Metrics
	log       *logger.Entry
}

// NewEngine builds the engine. custom may be nil, in which case the custom
// policy routes nowhere.
func NewEngine(
	users UserLoader,
	inspector CapabilityInspector,
	custom TargetProvider,
	config Config,
	m *metrics.Metrics,
	log *logger.Entry,
) *Engine {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &Engine{
		users:     users,
		inspector: inspector,
		custom:    custom,
		config:    config,
		metrics:   m,
		log:       log.WithField("component", "RoutingEngine"),
	}
}

// GetExecutionTargets returns the ordered targets for a signal of strategy.
// An empty list means "skip this user"; errors are reserved for storage
// failures and invalid policies.
func (e *Engine) GetExecutionTargets(
	ctx context.Context,
	userID int64,
	strategy string,
	override *model.RoutingPolicy,
) ([]model.ExecutionTarget, error) {

	user, err := e.users.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	policy, err := e.policyFor(user, override)
	if err != nil {
		e.log.WithFields(map[string]interface{}{
			"userID":   userID,
			"strategy": strategy,
		}).WithError(err).Error("Cannot route signal")
		return nil, err
	}

	var candidates []model.ExecutionTarget
	switch policy {
	case model.PolicyActiveOnly:
		candidates, err = e.activeOnly(ctx, user)
	case model.PolicySameExchangeAllEnvs:
		candidates, err = e.onExchanges(ctx, user, strategy, []model.Exchange{activeExchange(user)})
	case model.PolicyAllEnabled:
		var enabled []model.Exchange
		for _, ex := range model.Exchanges {
			if user.ExchangeEnabled(ex) {
				enabled = append(enabled, ex)
			}
		}
		candidates, err = e.onExchanges(ctx, user, strategy, enabled)
	case model.PolicyCustom:
		candidates, err = e.customTargets(ctx, user, strategy)
	}
	if err != nil {
		return nil, err
	}

	targets := e.liveGate(user, strategy, policy, Arrange(candidates))

	e.metrics.ObserveDecision(string(policy), len(targets))
	for _, t := range targets {
		e.metrics.ObserveTarget(string(t.Exchange), string(t.Env))
	}

	e.log.WithFields(map[string]interface{}{
		"userID":   user.ID,
		"strategy": strategy,
		"policy":   policy,
		"targets":  len(targets),
	}).Debug("Routing decision")

	return targets, nil
}

func (e *Engine) policyFor(user *model.User, override *model.RoutingPolicy) (model.RoutingPolicy, error) {
	if override != nil {
		if !override.Valid() {
			return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, *override)
		}
		return *override, nil
	}

	policy := user.EffectiveRoutingPolicy(model.RoutingPolicy(e.config.DefaultPolicy))
	if !policy.Valid() {
		if user.RoutingPolicy != "" {
			return "", fmt.Errorf("%w: stored %q for user %d", ErrInvalidPolicy, policy, user.ID)
		}
		return "", fmt.Errorf("%w: DEFAULT_ROUTING_POLICY %q", ErrInvalidPolicy, policy)
	}
	return policy, nil
}

// activeOnly emits the account type the user is currently viewing on the
// active exchange, if its credentials exist.
func (e *Engine) activeOnly(ctx context.Context, user *model.User) ([]model.ExecutionTarget, error) {
	exchange := activeExchange(user)

	at := user.ViewAccountType
	if at == "" {
		mode, ok := accounts.ModeAccountType(user.TradingMode, exchange)
		if !ok {
			mode = model.AccountDemo
		}
		at = mode
	}
	at = accounts.Normalize(at, exchange)

	available, err := e.inspector.AccountTypesOn(ctx, user.ID, exchange)
	if err != nil {
		return nil, err
	}
	for _, have := range available {
		if have == at {
			return []model.ExecutionTarget{accounts.Target(exchange, at)}, nil
		}
	}
	return nil, nil
}

func (e *Engine) onExchanges(
	ctx context.Context,
	user *model.User,
	strategy string,
	exchanges []model.Exchange,
) ([]model.ExecutionTarget, error) {

	var out []model.ExecutionTarget
	for _, ex := range exchanges {
		types, err := e.inspector.StrategyAccountTypesOn(ctx, user.ID, strategy, ex)
		if err != nil {
			return nil, err
		}
		for _, at := range types {
			out = append(out, accounts.Target(ex, at))
		}
	}
	return out, nil
}

// customTargets re-derives env from the account type; a provider cannot
// label a mainnet target as paper.
func (e *Engine) customTargets(ctx context.Context, user *model.User, strategy string) ([]model.ExecutionTarget, error) {
	if e.custom == nil {
		return nil, nil
	}

	provided, err := e.custom.Targets(ctx, user.ID, strategy)
	if err != nil {
		return nil, fmt.Errorf("custom targets for user %d: %w", user.ID, err)
	}

	out := make([]model.ExecutionTarget, 0, len(provided))
	for _, t := range provided {
		if !t.Exchange.Valid() {
			e.log.WithFields(map[string]interface{}{
				"userID": user.ID,
				"target": t.String(),
			}).Warn("Dropping custom target on unknown exchange")
			continue
		}
		out = append(out, accounts.Target(t.Exchange, t.AccountType))
	}
	return out, nil
}

// liveGate is the final filter of every policy.
func (e *Engine) liveGate(
	user *model.User,
	strategy string,
	policy model.RoutingPolicy,
	targets []model.ExecutionTarget,
) []model.ExecutionTarget {

	if user.LiveEnabled && e.config.LiveTradingAllowed {
		return targets
	}

	reason := "user live trading flag is off"
	if !e.config.LiveTradingAllowed {
		reason = "live trading disabled for this process"
	}

	out := targets[:0]
	for _, t := range targets {
		if t.Env != model.EnvLive {
			out = append(out, t)
			continue
		}

		e.metrics.ObserveLiveBlocked()
		e.log.WithFields(map[string]interface{}{
			"userID":   user.ID,
			"strategy": strategy,
			"policy":   policy,
			"target":   t.String(),
			"reason":   reason,
		}).Info("Live target blocked")
	}
	return out
}

// Arrange normalizes, de-duplicates and orders targets: Bybit before
// Hyperliquid, paper before live. Targets with an account type the exchange
// does not have are dropped. At most MaxTargets are returned.
func Arrange(targets []model.ExecutionTarget) []model.ExecutionTarget {
	seen := make(map[model.ExecutionTarget]bool, len(targets))
	out := make([]model.ExecutionTarget, 0, len(targets))

	for _, t := range targets {
		t = accounts.Target(t.Exchange, t.AccountType)
		if !accounts.Supports(t.Exchange, t.AccountType) || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Exchange != out[j].Exchange {
			return exchangeRank(out[i].Exchange) < exchangeRank(out[j].Exchange)
		}
		return out[i].Env == model.EnvPaper && out[j].Env == model.EnvLive
	})

	if len(out) > MaxTargets {
		out = out[:MaxTargets]
	}
	return out
}

func exchangeRank(e model.Exchange) int {
	for i, ex := range model.Exchanges {
		if ex == e {
			return i
		}
	}
	return len(model.Exchanges)
}

func activeExchange(u *model.User) model.Exchange {
	if u.ActiveExchange.Valid() {
		return u.ActiveExchange
	}
	return model.ExchangeBybit
}
