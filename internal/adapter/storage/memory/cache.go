package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const idempotencyKeyTTL = 24 * time.Hour

type cacheEntry struct {
	data    []byte
	expires time.Time
}

// Cache is a JSON-encoding cache, so callers get copies exactly like they
// would from Redis. It also serves as the idempotency store.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	e, ok := c.lookup(key)
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = c.entry(data, ttl)
	return nil
}

func (c *Cache) Forget(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *Cache) Claim(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lookup(key); ok {
		return false, nil
	}
	c.entries[key] = c.entry([]byte("1"), idempotencyKeyTTL)
	return true, nil
}

func (c *Cache) Release(ctx context.Context, key string) error {
	return c.Forget(ctx, key)
}

// Has reports whether key is currently cached.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.lookup(key)
	return ok
}

func (c *Cache) lookup(key string) (cacheEntry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, false
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return cacheEntry{}, false
	}
	return e, true
}

func (c *Cache) entry(data []byte, ttl time.Duration) cacheEntry {
	e := cacheEntry{data: data}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	return e
}
