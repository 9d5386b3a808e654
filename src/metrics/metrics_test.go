package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	m.ObserveDecision("active_only", 0)
	m.ObserveTarget("bybit", "paper")
	m.ObserveLiveBlocked()
	m.ObserveCache("user", true)
	m.ObserveDispatchError()
}

func TestObserveDecisionCountsEmptyRoutes(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObserveDecision("all_enabled", 0)
	m.ObserveDecision("all_enabled", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RoutingDecisions.WithLabelValues("all_enabled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmptyRoutes))
}

func TestObserveCache(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObserveCache("settings", true)
	m.ObserveCache("settings", false)
	m.ObserveCache("settings", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("settings")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("settings")))
}
