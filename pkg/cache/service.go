package cache

import "time"

// CacheService is the in-process key/value store behind session fallbacks,
// pending online payments and cached config responses.
type CacheService interface {
	// Get returns the value and true when present and unexpired.
	Get(key string) (interface{}, bool)

	// Set stores value for duration. A zero duration uses the cache default.
	Set(key string, value interface{}, duration time.Duration)

	// Add stores value only if key is absent. Returns false when key already exists.
	Add(key string, value interface{}, duration time.Duration) bool

	// Delete removes a value from the cache
	Delete(key string)

	// Flush removes all items
	Flush()
}
