package cache

import (
	"sync"
	"time"

	"rvsync/backend/pkg/config"
)

type item[V any] struct {
	value      V
	expiration int64
}

func (i item[V]) expired(now int64) bool {
	return i.expiration > 0 && now > i.expiration
}

// Options configures a Cache
type Options struct {
	TTL      time.Duration
	MaxItems int
}

// OptionsFromConfig reads TTL and size from the cache section of the config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{TTL: cfg.Cache.TTL, MaxItems: cfg.Cache.MaxSize}
}

// Cache is a thread-safe in-memory cache with expiration
type Cache[V any] struct {
	mu       sync.RWMutex
	items    map[string]item[V]
	ttl      time.Duration
	maxItems int
	now      func() time.Time
}

// New creates a cache. A zero TTL keeps items until they are deleted.
func New[V any](opts Options) *Cache[V] {
	return &Cache[V]{
		items:    make(map[string]item[V]),
		ttl:      opts.TTL,
		maxItems: opts.MaxItems,
		now:      time.Now,
	}
}

// Set adds an item with the default expiration
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithExpiration(key, value, c.ttl)
}

// SetWithExpiration adds an item that expires after d
func (c *Cache[V]) SetWithExpiration(key string, value V, d time.Duration) {
	var exp int64
	if d > 0 {
		exp = c.now().Add(d).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.purge()
		if len(c.items) >= c.maxItems {
			c.evictOldest()
		}
	}

	c.items[key] = item[V]{value: value, expiration: exp}
}

// Get retrieves an unexpired item
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, found := c.items[key]
	if !found || it.expired(c.now().UnixNano()) {
		var zero V
		return zero, false
	}
	return it.value, true
}

// Delete removes an item
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Count returns the number of items, including expired ones not yet purged
func (c *Cache[V]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// DeleteExpired drops every expired item
func (c *Cache[V]) DeleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purge()
}

func (c *Cache[V]) purge() {
	now := c.now().UnixNano()
	for k, v := range c.items {
		if v.expired(now) {
			delete(c.items, k)
		}
	}
}

// evictOldest removes the item closest to expiry. Caller holds the lock.
func (c *Cache[V]) evictOldest() {
	var (
		oldestKey string
		oldest    int64
		found     bool
	)
	for k, v := range c.items {
		if !found || (v.expiration != 0 && (oldest == 0 || v.expiration < oldest)) {
			oldestKey, oldest, found = k, v.expiration, true
		}
	}
	if found {
		delete(c.items, oldestKey)
	}
}
