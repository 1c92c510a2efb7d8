package providers

import "chatpulse/internal/structures"

// MetricsCacheProvider decorates the response cache with hit/miss
// accounting. Only Get is intercepted; Set promotes straight through
// the embedded provider.
type MetricsCacheProvider struct {
	CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *MetricsCacheProvider) Get(key string) ([]byte, bool) {
	val, ok := c.CacheProviderInterface.Get(key)
	if ok {
		c.metrics.IncCacheHits()
	} else {
		c.metrics.IncCacheMisses()
	}
	return val, ok
}

// NewInstrumentedCacheProvider builds the cache the controllers see.
// A disabled cache stays unwrapped: every lookup on it misses, and
// counting those would bury the real hit ratio.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if !conf.Cache.Enabled {
		return inner
	}
	return &MetricsCacheProvider{CacheProviderInterface: inner, metrics: metrics}
}
