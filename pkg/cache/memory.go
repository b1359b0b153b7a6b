package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize is the entry limit used when NewMemoryCache gets size <= 0.
const DefaultMemorySize = 4096

// MemoryCache is a bounded in-process cache that evicts the least recently
// used entry when full. It suits long-running processes such as the HTTP
// server, where merge bases are asked for repeatedly.
type MemoryCache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, memoryItem]
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

func (item memoryItem) expired(now time.Time) bool {
	return !item.expiresAt.IsZero() && now.After(item.expiresAt)
}

// NewMemoryCache creates a cache holding at most size entries.
func NewMemoryCache(size int) (Cache, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	c, err := lru.New[string, memoryItem](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{cache: c}, nil
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	if item.expired(time.Now()) {
		c.cache.Remove(key)
		return nil, false, nil
	}
	return item.data, true, nil
}

// Set stores a copy of data in the cache.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	item := memoryItem{data: append([]byte(nil), data...)}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(key, item)
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
	return nil
}

// Ensure MemoryCache implements Cache.
var _ Cache = (*MemoryCache)(nil)
