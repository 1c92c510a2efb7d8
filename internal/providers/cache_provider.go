package providers

import (
	"chatpulse/internal/structures"
	"unsafe"

	"github.com/coocood/freecache"
)

type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// CacheProvider keeps rendered API responses in an off-heap freecache
// arena, so repeated reads between two flushes never re-marshal the
// datasets.
type CacheProvider struct {
	cache *freecache.Cache
	ttl   int
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Cache disabled")
		return &noopCache{}
	}

	ttl := responseTTL(conf)
	logger.Infof(TypeApp, "Cache initialized: %dMB, TTL=%ds", conf.Cache.Size, ttl)

	return &CacheProvider{
		cache: freecache.NewCache(conf.Cache.Size * 1024 * 1024),
		ttl:   ttl,
	}
}

// responseTTL keeps entries alive for one flush window plus a second of
// slack. After the next flush the datasets may have changed anyway, so
// holding responses longer only serves stale data.
func responseTTL(conf *structures.Config) int {
	return max(int(conf.Persistence.FlushInterval.Seconds()), 1) + 1
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(keyBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *CacheProvider) Set(key string, value []byte) {
	_ = c.cache.Set(keyBytes(key), value, c.ttl)
}

// keyBytes views the key's bytes without copying. freecache copies the
// key internally and never writes into the argument, so the aliasing
// is safe.
func keyBytes(key string) []byte {
	if len(key) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(key), len(key))
}

type noopCache struct{}

func (n *noopCache) Get(string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(string, []byte)        {}
