package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

const defaultCleanupInterval = 30 * time.Second

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) isExpired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// InMemoryCache implements Cache in process memory. It is used when Redis is
// not configured and in tests.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	stopCh  chan struct{}
	once    sync.Once
}

// NewInMemoryCache creates a cache with a background expiry sweep
func NewInMemoryCache() *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[string]entry),
		stopCh:  make(chan struct{}),
	}
	go c.cleanupExpired(defaultCleanupInterval)
	return c
}

// Get implements Cache
func (c *InMemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || e.isExpired(time.Now()) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set implements Cache; a zero ttl never expires
func (c *InMemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Delete implements Cache
func (c *InMemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

// DeletePrefix implements Cache
func (c *InMemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired or not
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the expiry sweep
func (c *InMemoryCache) Close() {
	c.once.Do(func() { close(c.stopCh) })
}

func (c *InMemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for k, e := range c.entries {
				if e.isExpired(now) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

var _ Cache = (*InMemoryCache)(nil)
