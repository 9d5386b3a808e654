// Package cache provides the in-process TTL caches used to keep settings
// resolution cheap under high frequency polling.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"signalrouter/src/metrics"
)

// TTLCache is a size bounded cache whose entries expire after a fixed TTL.
// It is safe for concurrent use.
type TTLCache[K comparable, V any] struct {
	name    string
	lru     *expirable.LRU[K, V]
	metrics *metrics.Metrics
}

// New builds a cache. size <= 0 means unbounded, ttl <= 0 means entries never expire.
func New[K comparable, V any](name string, size int, ttl time.Duration, m *metrics.Metrics) *TTLCache[K, V] {
	if size < 0 {
		size = 0
	}
	return &TTLCache[K, V]{
		name:    name,
		lru:     expirable.NewLRU[K, V](size, nil, ttl),
		metrics: m,
	}
}

// Get returns the cached value for key if it is present and not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lru.Get(key)
	c.metrics.ObserveCache(c.name, ok)
	return v, ok
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

// Invalidate drops a single key.
func (c *TTLCache[K, V]) Invalidate(key K) {
	c.lru.Remove(key)
}

// InvalidateWhere drops every key matching pred and returns how many were removed.
func (c *TTLCache[K, V]) InvalidateWhere(pred func(K) bool) int {
	removed := 0
	for _, k := range c.lru.Keys() {
		if pred(k) && c.lru.Remove(k) {
			removed++
		}
	}
	return removed
}

func (c *TTLCache[K, V]) Len() int {
	return c.lru.Len()
}
