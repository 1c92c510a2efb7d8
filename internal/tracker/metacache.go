package tracker

import (
	"chatpulse/internal/providers"
	"context"
	"sync"
	"time"
)

// FetchFunc resolves a key against the external collaborator.
type FetchFunc[V any] func(ctx context.Context, key string) (V, error)

type cacheEntry[V any] struct {
	data      V
	fetchedAt time.Time
}

// MetaCache is a TTL cache over an expensive external lookup. Expiry is
// checked lazily at lookup time; there is no background sweep. When a
// refresh fails and the expired entry is still at hand, the stale value
// is served in place of the error.
type MetaCache[V any] struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry[V]
	ttl     time.Duration
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewMetaCache[V any](ttl time.Duration, logger providers.Logger, metrics providers.MetricsProviderInterface) *MetaCache[V] {
	return &MetaCache[V]{
		entries: make(map[string]*cacheEntry[V]),
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// Get looks up key with the cache's default TTL.
func (c *MetaCache[V]) Get(ctx context.Context, key string, fetch FetchFunc[V]) (V, error) {
	return c.GetTTL(ctx, key, fetch, c.ttl)
}

// GetTTL returns the cached value when younger than ttl, otherwise
// refreshes via fetch. A failed refresh falls back to the just-evicted
// value once; with nothing to fall back to the error propagates.
func (c *MetaCache[V]) GetTTL(ctx context.Context, key string, fetch FetchFunc[V], ttl time.Duration) (V, error) {
	c.mu.Lock()
	entry, hadEntry := c.entries[key]
	if hadEntry {
		if time.Since(entry.fetchedAt) < ttl {
			c.mu.Unlock()
			c.metrics.IncMetaHits()
			return entry.data, nil
		}
		// Expired: drop it from the index but keep it at hand, it may
		// still be served if the refresh fails.
		delete(c.entries, key)
	}
	c.mu.Unlock()

	c.metrics.IncMetaMisses()
	data, err := fetch(ctx, key)
	if err != nil {
		if hadEntry {
			c.logger.Warnf(providers.TypeEvent, "Refresh for %s failed, serving stale entry: %s", key, err)
			c.metrics.IncMetaStaleServed()
			return entry.data, nil
		}
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = &cacheEntry[V]{data: data, fetchedAt: time.Now()}
	c.mu.Unlock()
	return data, nil
}

// Len reports the number of indexed entries.
func (c *MetaCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
