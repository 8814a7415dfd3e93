package cache

import (
	"storefront-client/pkg/cache"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type memoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates a new in-memory cache service
// defaultExpiration: TTL used when Set is called with a zero duration
// cleanupInterval: how often expired items are evicted
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) cache.CacheService {
	return &memoryCache{
		store: gocache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *memoryCache) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

func (c *memoryCache) Set(key string, value interface{}, duration time.Duration) {
	if duration <= 0 {
		duration = gocache.DefaultExpiration
	}
	c.store.Set(key, value, duration)
}

func (c *memoryCache) Add(key string, value interface{}, duration time.Duration) bool {
	if duration <= 0 {
		duration = gocache.DefaultExpiration
	}
	return c.store.Add(key, value, duration) == nil
}

func (c *memoryCache) Delete(key string) {
	c.store.Delete(key)
}

func (c *memoryCache) Flush() {
	c.store.Flush()
}
