package settings

import (
	"context"
	"fmt"
	"time"

	"signalrouter/src/accounts"
	"signalrouter/src/cache"
	"signalrouter/src/metrics"
	"signalrouter/src/model"

	logger "github.com/sirupsen/logrus"
)

// Effective is the fully populated view of one strategy for one user on one
// exchange. It is shared through the cache and must be treated as read only.
type Effective struct {
	UserID      int64
	Strategy    string
	Known       bool
	Exchange    model.Exchange
	AccountType model.AccountType

	Long    Values
	Short   Values
	General Values

	// Raw levels, kept for consumers that walk their own chain.
	LongOverrides    Overrides
	ShortOverrides   Overrides
	GeneralOverrides Overrides
	GlobalOverrides  Overrides
	Defaults         Values
}

// ForSide returns the merged values for a side. SideAll yields the general view.
func (e *Effective) ForSide(side model.Side) Values {
	switch side {
	case model.SideLong:
		return e.Long
	case model.SideShort:
		return e.Short
	}
	return e.General
}

// SideOverrides returns the stored side-specific level.
func (e *Effective) SideOverrides(side model.Side) Overrides {
	switch side {
	case model.SideLong:
		return e.LongOverrides
	case model.SideShort:
		return e.ShortOverrides
	}
	return Overrides{}
}

// TradingMode is the side-agnostic trading mode with "global" resolved to the
// user's own mode.
func (e *Effective) TradingMode() model.TradingMode {
	return e.General.TradingMode
}

// Resolver walks the settings hierarchy: side slot, side-agnostic slot, user
// global, strategy default.
type Resolver struct {
	store   *Store
	cache   *SettingsCache
	metrics *metrics.Metrics
	log     *logger.Entry
}

func NewResolver(store *Store, c *SettingsCache, m *metrics.Metrics, log *logger.Entry) *Resolver {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &Resolver{
		store:   store,
		cache:   c,
		metrics: m,
		log:     log.WithField("component", "SettingsResolver"),
	}
}

// User exposes the cached user config the resolver works from.
func (r *Resolver) User(ctx context.Context, userID int64) (*model.User, error) {
	return r.store.LoadUser(ctx, userID)
}

// Resolve returns the effective settings. An empty exchange means the user's
// active exchange. An unregistered strategy resolves to the generic defaults
// without error. An exchange or account type outside the supported set is
// ErrInvalidEnum; otherwise only storage failures are returned.
func (r *Resolver) Resolve(
	ctx context.Context,
	userID int64,
	strategy string,
	exchange model.Exchange,
	accountType model.AccountType,
) (*Effective, error) {

	start := time.Now()
	defer func() { r.metrics.ObserveResolve(time.Since(start).Seconds()) }()

	if exchange != "" && !exchange.Valid() {
		return nil, fmt.Errorf("%w: exchange %q", ErrInvalidEnum, exchange)
	}

	user, err := r.store.LoadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if exchange == "" {
		exchange = activeExchange(user)
	}
	if accountType != "" {
		accountType = accounts.Normalize(accountType, exchange)
		if !accounts.Supports(exchange, accountType) {
			return nil, fmt.Errorf("%w: account type %q", ErrInvalidEnum, accountType)
		}
	}

	key := cache.SettingsKey{
		UserID:      userID,
		Strategy:    strategy,
		Exchange:    exchange,
		AccountType: accountType,
	}
	if r.cache != nil {
		if eff, ok := r.cache.Get(key); ok {
			return eff, nil
		}
	}

	def, known := Lookup(strategy)
	if !known {
		r.log.WithFields(map[string]interface{}{
			"userID":   userID,
			"strategy": strategy,
		}).Warn("Unknown strategy, resolving to generic defaults")
		def = generic(strategy)
	}

	eff := &Effective{
		UserID:          userID,
		Strategy:        strategy,
		Known:           known,
		Exchange:        exchange,
		AccountType:     accountType,
		GlobalOverrides: OverridesFromUser(user),
		Defaults:        def.Defaults,
	}

	if known {
		rows, err := r.store.Rows(ctx, userID, strategy, exchange)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			o := OverridesFromRow(&rows[i])
			switch rows[i].Side {
			case model.SideLong:
				eff.LongOverrides = o
			case model.SideShort:
				eff.ShortOverrides = o
			case model.SideAll:
				eff.GeneralOverrides = o
			}
		}
	}

	// "global" never survives: the user's own mode sits in GlobalOverrides.
	defaults := def.Defaults
	if defaults.TradingMode == model.ModeGlobal {
		defaults.TradingMode = model.ModeDemo
	}

	eff.General = Merge(defaults, eff.GeneralOverrides, eff.GlobalOverrides)
	eff.Long = Merge(defaults, eff.LongOverrides, eff.GeneralOverrides, eff.GlobalOverrides)
	eff.Short = Merge(defaults, eff.ShortOverrides, eff.GeneralOverrides, eff.GlobalOverrides)

	if r.cache != nil {
		r.cache.Set(key, eff)
	}
	return eff, nil
}
