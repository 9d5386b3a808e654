// Package app wires repositories, caches and engines into the services the
// HTTP API, the dispatcher and the operator commands share.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"signalrouter/src/cache"
	"signalrouter/src/credentials"
	"signalrouter/src/executors"
	"signalrouter/src/handler"
	"signalrouter/src/metrics"
	"signalrouter/src/repository"
	"signalrouter/src/routing"
	"signalrouter/src/settings"
	"signalrouter/src/tradeparams"
)

// Options carries the per-package configs. Zero values fall back to env.
type Options struct {
	Cache       *cache.Config
	Routing     *routing.Config
	TradeParams *tradeparams.Config
	Registerer  prometheus.Registerer
	Log         *logger.Entry
}

type App struct {
	DB *gorm.DB

	Users       *repository.GormUserRepository
	Settings    *repository.GormStrategySettingRepository
	Credentials *repository.GormCredentialRepository
	Positions   *repository.PositionRepository
	Exceptions  *repository.ExceptionRepository
	DispatchLog *repository.DispatchLogRepository

	Store     *settings.Store
	Resolver  *settings.Resolver
	Inspector *credentials.Inspector
	Engine    *routing.Engine
	Builder   *tradeparams.Builder
	Metrics   *metrics.Metrics
}

// New builds the service graph on db, the read/write database.
func New(db *gorm.DB, opts Options) (*App, error) {
	log := opts.Log
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}

	cacheCfg := valueOr(opts.Cache, cache.GetConfig)
	routingCfg := valueOr(opts.Routing, routing.GetConfig)
	paramsCfg := valueOr(opts.TradeParams, tradeparams.GetConfig)

	var m *metrics.Metrics
	if opts.Registerer != nil {
		m = metrics.NewWithRegistry(opts.Registerer)
	}

	coins, err := tradeparams.LoadCoinTable(paramsCfg.CoinDefaultsFile)
	if err != nil {
		return nil, fmt.Errorf("load coin defaults: %w", err)
	}

	schema := repository.NewColumnInspector(db, cache.NewSchemaCache(cacheCfg, m))
	a := &App{
		DB:          db,
		Users:       repository.NewUserRepositoryWithDB(db),
		Settings:    repository.NewStrategySettingRepositoryWithDB(db, schema),
		Credentials: repository.NewCredentialRepositoryWithDB(db),
		Positions:   repository.NewPositionRepositoryWithDB(db),
		Exceptions:  repository.NewExceptionRepositoryWithDB(db),
		DispatchLog: repository.NewDispatchLogRepositoryWithDB(db),
		Metrics:     m,
	}

	settingsCache := settings.NewSettingsCache(cacheCfg, m)
	a.Store = settings.NewStore(a.Settings, a.Users, cache.NewUserConfigCache(cacheCfg, m), settingsCache, m, log)
	a.Resolver = settings.NewResolver(a.Store, settingsCache, m, log)
	a.Inspector = credentials.NewInspector(a.Credentials, a.Resolver, log)
	a.Engine = routing.NewEngine(a.Resolver, a.Inspector, nil, routingCfg, m, log)
	a.Builder = tradeparams.NewBuilder(coins, log)

	if routingCfg.LiveTradingAllowed {
		log.Warn("Live trading is allowed for this process")
	}

	return a, nil
}

// API returns the settings HTTP API backed by this app.
func (a *App) API() handler.API {
	return handler.API{
		Resolver:  a.Resolver,
		Store:     a.Store,
		Router:    a.Engine,
		Params:    a.Builder,
		Positions: a.Positions,
	}
}

// Dispatcher builds the signal dispatcher. signals reads from the read-only
// database; a nil sink logs plans instead of sending them.
func (a *App) Dispatcher(signals executors.SignalSource, sink executors.OrderSink, cfg executors.Config, log *logger.Entry) *executors.Dispatcher {
	return executors.NewDispatcher(executors.Deps{
		Signals:     signals,
		Subscribers: a.Settings,
		Router:      a.Engine,
		Settings:    a.Resolver,
		Params:      a.Builder,
		Sink:        sink,
		Logs:        a.DispatchLog,
		Exceptions:  a.Exceptions,
	}, cfg, a.Metrics, log)
}

func valueOr[T any](v *T, load func() T) T {
	if v != nil {
		return *v
	}
	return load()
}
