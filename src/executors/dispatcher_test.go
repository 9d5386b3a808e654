package executors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"signalrouter/src/externalmodel"
	"signalrouter/src/metrics"
	"signalrouter/src/model"
	"signalrouter/src/settings"
	"signalrouter/src/tradeparams"
)

type fakeSignals struct {
	latest  uint
	signals []externalmodel.TradingSignal
	err     error
	asked   []uint
}

func (f *fakeSignals) LatestID(context.Context) (uint, error) {
	return f.latest, nil
}

func (f *fakeSignals) FindAfterID(_ context.Context, lastID uint, limit int) ([]externalmodel.TradingSignal, error) {
	f.asked = append(f.asked, lastID)
	if f.err != nil {
		return nil, f.err
	}
	var out []externalmodel.TradingSignal
	for _, s := range f.signals {
		if s.ID > lastID && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeSubscribers map[string][]int64

func (f fakeSubscribers) UserIDsForStrategy(_ context.Context, strategy string) ([]int64, error) {
	return f[strategy], nil
}

type fakeRouter struct {
	targets map[int64][]model.ExecutionTarget
	errs    map[int64]error
}

func (f *fakeRouter) GetExecutionTargets(_ context.Context, userID int64, _ string, _ *model.RoutingPolicy) ([]model.ExecutionTarget, error) {
	return f.targets[userID], f.errs[userID]
}

// fakeSettings serves the same stored values for every user.
type fakeSettings struct {
	general settings.Overrides
	long    settings.Overrides
	short   settings.Overrides
}

func (f *fakeSettings) User(_ context.Context, userID int64) (*model.User, error) {
	return settings.DefaultUser(userID), nil
}

func (f *fakeSettings) Resolve(_ context.Context, userID int64, strategy string, exchange model.Exchange, accountType model.AccountType) (*settings.Effective, error) {
	def := settings.GenericDefaults
	return &settings.Effective{
		UserID:           userID,
		Strategy:         strategy,
		Known:            true,
		Exchange:         exchange,
		AccountType:      accountType,
		General:          settings.Merge(def, f.general),
		Long:             settings.Merge(def, f.long, f.general),
		Short:            settings.Merge(def, f.short, f.general),
		GeneralOverrides: f.general,
		LongOverrides:    f.long,
		ShortOverrides:   f.short,
		Defaults:         def,
	}, nil
}

type recordingSink struct {
	plans []DispatchPlan
	err   func(DispatchPlan) error
}

func (s *recordingSink) Submit(_ context.Context, plan DispatchPlan) error {
	s.plans = append(s.plans, plan)
	if s.err != nil {
		return s.err(plan)
	}
	return nil
}

type memoryLogs struct {
	rows []model.DispatchLog
}

func (m *memoryLogs) CreateBatch(_ context.Context, logs []model.DispatchLog) error {
	m.rows = append(m.rows, logs...)
	return nil
}

type memoryExceptions struct {
	rows []*model.Exception
}

func (m *memoryExceptions) Create(_ context.Context, exc *model.Exception) error {
	m.rows = append(m.rows, exc)
	return nil
}

var (
	bybitDemo = model.ExecutionTarget{Exchange: model.ExchangeBybit, Env: model.EnvPaper, AccountType: model.AccountDemo}
	bybitReal = model.ExecutionTarget{Exchange: model.ExchangeBybit, Env: model.EnvLive, AccountType: model.AccountReal}
)

type fixture struct {
	dispatcher *Dispatcher
	signals    *fakeSignals
	router     *fakeRouter
	settings   *fakeSettings
	sink       *recordingSink
	logs       *memoryLogs
	exceptions *memoryExceptions
	metrics    *metrics.Metrics
	hook       *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	f := &fixture{
		signals:    &fakeSignals{},
		router:     &fakeRouter{targets: map[int64][]model.ExecutionTarget{}, errs: map[int64]error{}},
		settings:   &fakeSettings{general: settings.Overrides{Enabled: settings.Override(true)}},
		sink:       &recordingSink{},
		logs:       &memoryLogs{},
		exceptions: &memoryExceptions{},
		metrics:    metrics.NewWithRegistry(prometheus.NewRegistry()),
		hook:       hook,
	}
	f.dispatcher = NewDispatcher(Deps{
		Signals:     f.signals,
		Subscribers: fakeSubscribers{"scalper": {1, 2}},
		Router:      f.router,
		Settings:    f.settings,
		Params:      tradeparams.NewBuilder(nil, logrus.NewEntry(log)),
		Sink:        f.sink,
		Logs:        f.logs,
		Exceptions:  f.exceptions,
	}, Config{SignalBatch: 10}, f.metrics, logrus.NewEntry(log))

	return f
}

func signal(id uint, action string) externalmodel.TradingSignal {
	price := 65000.0
	return externalmodel.TradingSignal{ID: id, Strategy: "Scalper", Symbol: "BTCUSDT", Action: action, Price: &price}
}

func TestHandleSignal_PlansEveryTargetPerUser(t *testing.T) {
	f := newFixture(t)
	f.router.targets[1] = []model.ExecutionTarget{bybitDemo, bybitReal}
	f.router.targets[2] = []model.ExecutionTarget{bybitDemo}

	plans := f.dispatcher.HandleSignal(context.Background(), signal(7, "Buy"))

	assert.Equal(t, 2, plans)
	require.Len(t, f.sink.plans, 2)

	first := f.sink.plans[0]
	assert.Equal(t, int64(1), first.UserID)
	assert.Equal(t, "scalper", first.Strategy)
	assert.Equal(t, model.SideLong, first.Side)
	assert.NotEmpty(t, first.ID)
	require.Len(t, first.Orders, 2)
	assert.Equal(t, bybitDemo, first.Orders[0].Target)
	assert.Equal(t, model.AccountReal, first.Orders[1].Params.AccountType)
	assert.Equal(t, "3", first.Orders[0].Params.SLPercent.String())
	assert.NotEqual(t, first.ID, f.sink.plans[1].ID)

	require.Len(t, f.logs.rows, 3)
	for _, row := range f.logs.rows {
		assert.Equal(t, model.DispatchStatusSent, row.Status)
		assert.Equal(t, uint(7), row.SignalID)
	}
	assert.Empty(t, f.exceptions.rows)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SignalsProcessed))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.PlansDispatched))
}

func TestHandleSignal_ZeroTargetsSkipsUser(t *testing.T) {
	f := newFixture(t)
	f.router.targets[2] = []model.ExecutionTarget{bybitDemo}

	plans := f.dispatcher.HandleSignal(context.Background(), signal(1, "Sell"))

	assert.Equal(t, 1, plans)
	require.Len(t, f.sink.plans, 1)
	assert.Equal(t, int64(2), f.sink.plans[0].UserID)
	assert.Equal(t, model.SideShort, f.sink.plans[0].Side)

	require.Len(t, f.logs.rows, 2)
	assert.Equal(t, model.DispatchStatusSkipped, f.logs.rows[0].Status)
	assert.Equal(t, "no execution targets", f.logs.rows[0].Reason)
}

func TestHandleSignal_UserFailureDoesNotStopOthers(t *testing.T) {
	f := newFixture(t)
	f.router.errs[1] = errors.New("connection reset")
	f.router.targets[2] = []model.ExecutionTarget{bybitDemo}

	plans := f.dispatcher.HandleSignal(context.Background(), signal(3, "Buy"))

	assert.Equal(t, 1, plans)
	require.Len(t, f.exceptions.rows, 1)
	exc := f.exceptions.rows[0]
	require.NotNil(t, exc.UserID)
	assert.Equal(t, int64(1), *exc.UserID)
	assert.Equal(t, "scalper", exc.Strategy)
	assert.Equal(t, "connection reset", exc.Message)
	assert.Contains(t, exc.Context, `"signalID":3`)
	assert.NotEmpty(t, exc.Stack)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.DispatchErrors))
}

func TestHandleSignal_Gates(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*fakeSettings)
		action string
		reason string
	}{
		{
			name:   "disabled strategy",
			setup:  func(s *fakeSettings) { s.general = settings.Overrides{} },
			action: "Buy",
			reason: "strategy disabled",
		},
		{
			name: "side disabled while general enabled",
			setup: func(s *fakeSettings) {
				s.short = settings.Overrides{Enabled: settings.Override(false)}
			},
			action: "Sell",
			reason: "strategy disabled",
		},
		{
			name: "long only",
			setup: func(s *fakeSettings) {
				s.general.Direction = settings.Override("long")
			},
			action: "Short",
			reason: "direction is long only",
		},
		{
			name: "short only",
			setup: func(s *fakeSettings) {
				s.general.Direction = settings.Override("short")
			},
			action: "Buy",
			reason: "direction is short only",
		},
		{
			name: "missing quality with a minimum",
			setup: func(s *fakeSettings) {
				s.general.MinQuality = settings.Override(60)
			},
			action: "Buy",
			reason: "signal quality missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.router.targets[1] = []model.ExecutionTarget{bybitDemo}
			f.router.targets[2] = []model.ExecutionTarget{bybitDemo}
			tt.setup(f.settings)

			plans := f.dispatcher.HandleSignal(context.Background(), signal(1, tt.action))

			assert.Zero(t, plans)
			assert.Empty(t, f.sink.plans)
			require.Len(t, f.logs.rows, 2)
			assert.Equal(t, tt.reason, f.logs.rows[0].Reason)
		})
	}
}

func TestHandleSignal_MinQuality(t *testing.T) {
	f := newFixture(t)
	f.router.targets[1] = []model.ExecutionTarget{bybitDemo}
	f.router.targets[2] = []model.ExecutionTarget{bybitDemo}
	f.settings.general.MinQuality = settings.Override(60)

	low, high := 40, 75
	sig := signal(1, "Buy")
	sig.Quality = &low
	assert.Zero(t, f.dispatcher.HandleSignal(context.Background(), sig))

	sig.Quality = &high
	assert.Equal(t, 2, f.dispatcher.HandleSignal(context.Background(), sig))
}

func TestHandleSignal_IgnoresUnusableSignals(t *testing.T) {
	f := newFixture(t)
	f.router.targets[1] = []model.ExecutionTarget{bybitDemo}

	unknown := signal(1, "Buy")
	unknown.Strategy = "martingale"
	noSide := signal(2, "Hold")
	noSymbol := signal(3, "Buy")
	noSymbol.Symbol = " "

	for _, sig := range []externalmodel.TradingSignal{unknown, noSide, noSymbol} {
		assert.Zero(t, f.dispatcher.HandleSignal(context.Background(), sig))
	}
	assert.Empty(t, f.sink.plans)
	assert.Empty(t, f.logs.rows)
	assert.Equal(t, logrus.WarnLevel, f.hook.LastEntry().Level)
}

func TestHandleSignal_PartialSinkFailure(t *testing.T) {
	f := newFixture(t)
	f.router.targets[1] = []model.ExecutionTarget{bybitDemo, bybitReal}
	f.sink.err = func(plan DispatchPlan) error {
		if plan.UserID != 1 {
			return nil
		}
		return multierr.Append(nil, &OrderError{Target: bybitReal, Err: errors.New("insufficient margin")})
	}

	plans := f.dispatcher.HandleSignal(context.Background(), signal(1, "Buy"))

	assert.Equal(t, 1, plans)
	require.Len(t, f.logs.rows, 3)
	byTarget := map[model.AccountType]model.DispatchLog{}
	for _, row := range f.logs.rows[:2] {
		byTarget[row.AccountType] = row
	}
	assert.Equal(t, model.DispatchStatusSent, byTarget[model.AccountDemo].Status)
	assert.Equal(t, model.DispatchStatusError, byTarget[model.AccountReal].Status)
	require.NotNil(t, byTarget[model.AccountReal].ErrorMessage)
	assert.Equal(t, "insufficient margin", *byTarget[model.AccountReal].ErrorMessage)
	require.Len(t, f.exceptions.rows, 1)
}

func TestPoll_AdvancesPastHandledSignals(t *testing.T) {
	f := newFixture(t)
	f.router.targets[1] = []model.ExecutionTarget{bybitDemo}
	f.signals.signals = []externalmodel.TradingSignal{signal(4, "Buy"), signal(5, "Sell"), signal(9, "Buy")}

	next, err := f.dispatcher.Poll(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, uint(9), next)
	assert.Len(t, f.sink.plans, 2)

	next, err = f.dispatcher.Poll(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, uint(9), next)
	assert.Equal(t, []uint{4, 9}, f.signals.asked)
}

func TestPoll_SourceErrorKeepsPosition(t *testing.T) {
	f := newFixture(t)
	f.signals.err = errors.New("read replica down")

	next, err := f.dispatcher.Poll(context.Background(), 12)
	assert.EqualError(t, err, "read replica down")
	assert.Equal(t, uint(12), next)
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.config.LoopPeriod = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, f.dispatcher.Run(ctx))
	assert.Equal(t, "Dispatcher stopped", f.hook.LastEntry().Message)
}

func TestNewDispatcher_DefaultsToLogSink(t *testing.T) {
	d := NewDispatcher(Deps{}, Config{}, nil, nil)
	_, ok := d.deps.Sink.(*LogSink)
	assert.True(t, ok)
}
