package session

import (
	"time"

	"storefront-client/pkg/cache"
)

// MemoryStore keeps tokens in the in-process cache. Used on its own for
// ephemeral sessions and as the fallback when the session file is unusable.
type MemoryStore struct {
	cache cache.CacheService
}

func NewMemoryStore(c cache.CacheService) *MemoryStore {
	return &MemoryStore{cache: c}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok && str != ""
}

func (s *MemoryStore) Set(key, value string, ttl time.Duration) {
	s.cache.Set(key, value, ttl)
}

func (s *MemoryStore) Clear(keys ...string) {
	for _, k := range keys {
		s.cache.Delete(k)
	}
}
