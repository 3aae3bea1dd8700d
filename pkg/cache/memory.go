package cache

import (
	"context"
	"slices"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps entries in process memory. Expired entries are purged
// every cleanup interval.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache returns an in-memory cache. defaultTTL applies when Set is
// called with a zero ttl; zero means entries never expire.
func NewMemoryCache(defaultTTL, cleanup time.Duration) *MemoryCache {
	exp := gocache.NoExpiration
	if defaultTTL > 0 {
		exp = defaultTTL
	}
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &MemoryCache{store: gocache.New(exp, cleanup)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(data), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	exp := gocache.DefaultExpiration
	if ttl > 0 {
		exp = ttl
	}
	c.store.Set(key, slices.Clone(data), exp)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// Len returns the number of stored entries, including expired entries not
// yet purged.
func (c *MemoryCache) Len() int { return c.store.ItemCount() }

func (c *MemoryCache) Close() error {
	c.store.Flush()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
