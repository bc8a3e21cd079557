package common

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheService is the in-process cache behind role lookups, memory
// sessions and used OAuth states. Expired items are evicted by the go-cache
// janitor every cleanUpInterval.
type CacheService struct {
	cache *cache.Cache
}

func NewCacheService(defaultExpiration, cleanUpInterval time.Duration) *CacheService {
	c := cache.New(defaultExpiration, cleanUpInterval)
	return &CacheService{cache: c}
}

func (cs *CacheService) Set(key string, value interface{}, duration time.Duration) {
	cs.cache.Set(key, value, duration)
}

// Add stores value only when key is absent and reports whether it did.
func (cs *CacheService) Add(key string, value interface{}, duration time.Duration) bool {
	return cs.cache.Add(key, value, duration) == nil
}

func (cs *CacheService) Get(key string) (interface{}, bool) {
	return cs.cache.Get(key)
}

func (cs *CacheService) Delete(key string) {
	cs.cache.Delete(key)
}

func (cs *CacheService) ItemCount() int {
	return cs.cache.ItemCount()
}

// Flush drops every item, memory sessions included.
func (cs *CacheService) Flush() {
	cs.cache.Flush()
}
