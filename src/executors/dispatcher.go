package executors

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"signalrouter/src/externalmodel"
	"signalrouter/src/metrics"
	"signalrouter/src/model"
	"signalrouter/src/settings"
	"signalrouter/src/tradeparams"
)

type SignalSource interface {
	LatestID(ctx context.Context) (uint, error)
	FindAfterID(ctx context.Context, lastID uint, limit int) ([]externalmodel.TradingSignal, error)
}

// Subscribers lists users that configured a strategy.
type Subscribers interface {
	UserIDsForStrategy(ctx context.Context, strategy string) ([]int64, error)
}

type Router interface {
	GetExecutionTargets(ctx context.Context, userID int64, strategy string, override *model.RoutingPolicy) ([]model.ExecutionTarget, error)
}

type SettingsResolver interface {
	User(ctx context.Context, userID int64) (*model.User, error)
	Resolve(ctx context.Context, userID int64, strategy string, exchange model.Exchange, accountType model.AccountType) (*settings.Effective, error)
}

type ParamBuilder interface {
	GetTradeParams(
		user *model.User,
		eff *settings.Effective,
		symbol string,
		strategy string,
		side string,
		exchange model.Exchange,
		accountType model.AccountType,
	) tradeparams.TradeParams
}

type DispatchLogWriter interface {
	CreateBatch(ctx context.Context, logs []model.DispatchLog) error
}

// Deps are the collaborators of a Dispatcher. Exceptions and Logs may be nil.
type Deps struct {
	Signals     SignalSource
	Subscribers Subscribers
	Router      Router
	Settings    SettingsResolver
	Params      ParamBuilder
	Sink        OrderSink
	Logs        DispatchLogWriter
	Exceptions  ExceptionRecorder
}

// Dispatcher turns new trading signals into per-user dispatch plans.
type Dispatcher struct {
	deps    Deps
	config  Config
	metrics *metrics.Metrics
	log     *logger.Entry
	now     func() time.Time
}

func NewDispatcher(deps Deps, config Config, m *metrics.Metrics, log *logger.Entry) *Dispatcher {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	if deps.Sink == nil {
		deps.Sink = NewLogSink(log)
	}
	return &Dispatcher{
		deps:    deps,
		config:  config,
		metrics: m,
		log:     log.WithField("component", "Dispatcher"),
		now:     time.Now,
	}
}

// Run polls for signals until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	lastID := d.config.StartFromID
	if lastID == 0 {
		latest, err := d.deps.Signals.LatestID(ctx)
		if err != nil {
			d.log.WithError(err).Error("Failed to read latest signal id")
			return err
		}
		lastID = latest
	}

	d.log.WithFields(map[string]interface{}{
		"lastID":     lastID,
		"loopPeriod": d.config.LoopPeriod.String(),
	}).Info("Dispatcher started")

	ticker := time.NewTicker(d.config.LoopPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("Dispatcher stopped")
			return nil

		case <-ticker.C:
			next, err := d.Poll(ctx, lastID)
			if err != nil {
				d.log.WithError(err).WithField("lastID", lastID).Error("Signal poll failed, retrying on next tick")
			}
			lastID = next
		}
	}
}

// Poll handles one batch of signals after lastID and returns the id to
// continue from. Per-user failures never stop the batch.
func (d *Dispatcher) Poll(ctx context.Context, lastID uint) (uint, error) {
	signals, err := d.deps.Signals.FindAfterID(ctx, lastID, d.config.SignalBatch)
	if err != nil {
		return lastID, err
	}

	for _, sig := range signals {
		if ctx.Err() != nil {
			return lastID, ctx.Err()
		}
		d.HandleSignal(ctx, sig)
		lastID = sig.ID
	}
	return lastID, nil
}

// HandleSignal fans one signal out to every subscribed user and returns the
// number of plans handed to the sink.
func (d *Dispatcher) HandleSignal(ctx context.Context, sig externalmodel.TradingSignal) int {
	d.metrics.ObserveSignal()

	log := d.log.WithFields(map[string]interface{}{
		"signalID": sig.ID,
		"strategy": sig.Strategy,
		"symbol":   sig.Symbol,
		"action":   sig.Action,
	})

	strategy := strings.ToLower(strings.TrimSpace(sig.Strategy))
	if _, ok := settings.Lookup(strategy); !ok {
		log.Warn("Signal for unknown strategy ignored")
		return 0
	}
	side, err := settings.ParseSide(sig.Action)
	if err != nil || side == model.SideAll {
		log.Warn("Signal without a usable side ignored")
		return 0
	}
	if strings.TrimSpace(sig.Symbol) == "" {
		log.Warn("Signal without symbol ignored")
		return 0
	}

	userIDs, err := d.deps.Subscribers.UserIDsForStrategy(ctx, strategy)
	if err != nil {
		d.metrics.ObserveDispatchError()
		Capture(ctx, d.deps.Exceptions, d.log, Failure{
			Module:   "repository",
			Method:   "UserIDsForStrategy",
			Strategy: strategy,
			Context:  map[string]interface{}{"signalID": sig.ID},
		}, err)
		return 0
	}

	plans := 0
	for _, userID := range userIDs {
		sent, err := d.dispatchUser(ctx, sig, strategy, side, userID)
		if sent {
			plans++
		}
		if err != nil {
			d.metrics.ObserveDispatchError()
			uid := userID
			Capture(ctx, d.deps.Exceptions, d.log, Failure{
				Module:   "executors",
				Method:   "dispatchUser",
				UserID:   &uid,
				Strategy: strategy,
				Context: map[string]interface{}{
					"signalID": sig.ID,
					"symbol":   sig.Symbol,
					"side":     side,
				},
			}, err)
		}
	}

	log.WithFields(map[string]interface{}{
		"users": len(userIDs),
		"plans": plans,
	}).Info("Signal dispatched")

	return plans
}

// dispatchUser reports whether a plan reached the sink.
func (d *Dispatcher) dispatchUser(
	ctx context.Context,
	sig externalmodel.TradingSignal,
	strategy string,
	side model.Side,
	userID int64,
) (bool, error) {

	log := d.log.WithFields(map[string]interface{}{
		"signalID": sig.ID,
		"userID":   userID,
		"strategy": strategy,
		"side":     side,
	})

	user, err := d.deps.Settings.User(ctx, userID)
	if err != nil {
		return false, err
	}

	eff, err := d.deps.Settings.Resolve(ctx, userID, strategy, "", "")
	if err != nil {
		return false, err
	}
	if reason := gate(eff.ForSide(side), side, sig.Quality); reason != "" {
		log.WithField("reason", reason).Debug("Signal skipped for user")
		return false, d.writeLogs(ctx, []model.DispatchLog{d.skipped(sig, strategy, side, userID, reason)})
	}

	targets, err := d.deps.Router.GetExecutionTargets(ctx, userID, strategy, nil)
	if err != nil {
		return false, err
	}
	if len(targets) == 0 {
		log.Info("No execution targets, skipping user")
		return false, d.writeLogs(ctx, []model.DispatchLog{d.skipped(sig, strategy, side, userID, "no execution targets")})
	}

	plan := DispatchPlan{
		ID:        uuid.NewString(),
		SignalID:  sig.ID,
		UserID:    userID,
		Strategy:  strategy,
		Symbol:    sig.Symbol,
		Side:      side,
		Price:     sig.Price,
		CreatedAt: d.now(),
	}
	for _, t := range targets {
		teff, err := d.deps.Settings.Resolve(ctx, userID, strategy, t.Exchange, t.AccountType)
		if err != nil {
			return false, err
		}
		plan.Orders = append(plan.Orders, PlannedOrder{
			Target: t,
			Params: d.deps.Params.GetTradeParams(user, teff, sig.Symbol, strategy, string(side), t.Exchange, t.AccountType),
		})
	}

	sinkErr := d.deps.Sink.Submit(ctx, plan)
	failed, rest := FailedTargets(sinkErr)

	logs := make([]model.DispatchLog, 0, len(plan.Orders))
	for _, o := range plan.Orders {
		entry := d.entry(plan, o)
		switch {
		case rest != nil:
			msg := rest.Error()
			entry.Status = model.DispatchStatusError
			entry.ErrorMessage = &msg
		case failed[o.Target] != "":
			msg := failed[o.Target]
			entry.Status = model.DispatchStatusError
			entry.ErrorMessage = &msg
		default:
			entry.Status = model.DispatchStatusSent
		}
		logs = append(logs, entry)
	}

	d.metrics.ObservePlan()
	log.WithFields(map[string]interface{}{
		"dispatchID": plan.ID,
		"targets":    len(plan.Orders),
		"failed":     len(failed),
	}).Info("Dispatch plan submitted")

	return true, multierr.Append(sinkErr, d.writeLogs(ctx, logs))
}

// gate returns why a side-resolved setting rejects the signal, or "".
func gate(v settings.Values, side model.Side, quality *int) string {
	if !v.Enabled {
		return "strategy disabled"
	}
	switch strings.ToLower(v.Direction) {
	case "long":
		if side != model.SideLong {
			return "direction is long only"
		}
	case "short":
		if side != model.SideShort {
			return "direction is short only"
		}
	}
	if v.MinQuality > 0 {
		if quality == nil {
			return "signal quality missing"
		}
		if *quality < v.MinQuality {
			return "signal quality below minimum"
		}
	}
	return ""
}

func (d *Dispatcher) entry(plan DispatchPlan, o PlannedOrder) model.DispatchLog {
	return model.DispatchLog{
		DispatchID:  plan.ID,
		SignalID:    plan.SignalID,
		UserID:      plan.UserID,
		Strategy:    plan.Strategy,
		Symbol:      plan.Symbol,
		Side:        plan.Side,
		Exchange:    o.Target.Exchange,
		Env:         o.Target.Env,
		AccountType: o.Target.AccountType,
		Percent:     o.Params.Percent.InexactFloat64(),
		SLPercent:   o.Params.SLPercent.InexactFloat64(),
		TPPercent:   o.Params.TPPercent.InexactFloat64(),
		Leverage:    o.Params.Leverage,
		UseATR:      o.Params.UseATR,
		CreatedAt:   plan.CreatedAt,
	}
}

func (d *Dispatcher) skipped(sig externalmodel.TradingSignal, strategy string, side model.Side, userID int64, reason string) model.DispatchLog {
	return model.DispatchLog{
		SignalID:  sig.ID,
		UserID:    userID,
		Strategy:  strategy,
		Symbol:    sig.Symbol,
		Side:      side,
		Status:    model.DispatchStatusSkipped,
		Reason:    reason,
		CreatedAt: d.now(),
	}
}

func (d *Dispatcher) writeLogs(ctx context.Context, logs []model.DispatchLog) error {
	if d.deps.Logs == nil {
		return nil
	}
	return d.deps.Logs.CreateBatch(ctx, logs)
}
