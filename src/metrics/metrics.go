// Package metrics exposes Prometheus metrics for routing, settings resolution,
// caches and the signal dispatcher.
//
// Every helper method is safe to call on a nil *Metrics so components can be
// constructed without metrics in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors of the service.
type Metrics struct {
	// Routing
	RoutingDecisions   *prometheus.CounterVec // decisions per policy
	TargetsEmitted     *prometheus.CounterVec // emitted targets per exchange/env
	LiveTargetsBlocked prometheus.Counter     // live targets dropped by the safety gate
	EmptyRoutes        prometheus.Counter     // decisions that produced no target

	// Settings
	SettingsWrites     *prometheus.CounterVec // writes per strategy
	ValidationFailures prometheus.Counter     // rejected writes (range or whitelist)
	ResolveDuration    prometheus.Histogram   // time spent resolving effective settings

	// Caches
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Dispatcher
	SignalsProcessed prometheus.Counter
	PlansDispatched  prometheus.Counter
	DispatchErrors   prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics on a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		RoutingDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "routing_decisions_total",
			Help: "Routing decisions by policy",
		}, []string{"policy"}),
		TargetsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "routing_targets_total",
			Help: "Execution targets emitted by exchange and environment",
		}, []string{"exchange", "env"}),
		LiveTargetsBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "routing_live_blocked_total",
			Help: "Live targets removed by the live trading safety gate",
		}),
		EmptyRoutes: factory.NewCounter(prometheus.CounterOpts{
			Name: "routing_empty_total",
			Help: "Routing decisions that resolved to zero targets",
		}),
		SettingsWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "settings_writes_total",
			Help: "Strategy setting writes by strategy",
		}, []string{"strategy"}),
		ValidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "settings_validation_failures_total",
			Help: "Setting writes rejected by validation",
		}),
		ResolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "settings_resolve_seconds",
			Help:    "Effective settings resolution latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Cache hits by cache name",
		}, []string{"cache"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Cache misses by cache name",
		}, []string{"cache"}),
		SignalsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_signals_total",
			Help: "Trading signals processed by the dispatcher",
		}),
		PlansDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_plans_total",
			Help: "Dispatch plans handed to the order sink",
		}),
		DispatchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_errors_total",
			Help: "Per-user dispatch failures",
		}),
	}
}

func (m *Metrics) ObserveDecision(policy string, targets int) {
	if m == nil {
		return
	}
	m.RoutingDecisions.WithLabelValues(policy).Inc()
	if targets == 0 {
		m.EmptyRoutes.Inc()
	}
}

func (m *Metrics) ObserveTarget(exchange, env string) {
	if m == nil {
		return
	}
	m.TargetsEmitted.WithLabelValues(exchange, env).Inc()
}

func (m *Metrics) ObserveLiveBlocked() {
	if m == nil {
		return
	}
	m.LiveTargetsBlocked.Inc()
}

func (m *Metrics) ObserveSettingWrite(strategy string) {
	if m == nil {
		return
	}
	m.SettingsWrites.WithLabelValues(strategy).Inc()
}

func (m *Metrics) ObserveValidationFailure() {
	if m == nil {
		return
	}
	m.ValidationFailures.Inc()
}

func (m *Metrics) ObserveResolve(seconds float64) {
	if m == nil {
		return
	}
	m.ResolveDuration.Observe(seconds)
}

func (m *Metrics) ObserveCache(name string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(name).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(name).Inc()
}

func (m *Metrics) ObserveSignal() {
	if m == nil {
		return
	}
	m.SignalsProcessed.Inc()
}

func (m *Metrics) ObservePlan() {
	if m == nil {
		return
	}
	m.PlansDispatched.Inc()
}

func (m *Metrics) ObserveDispatchError() {
	if m == nil {
		return
	}
	m.DispatchErrors.Inc()
}
