package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache. It backs local runs without Redis and
// the service tests.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*memEntry
	closed  bool
	stop    chan struct{}
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryCache creates an in-memory cache that evicts expired entries
// every evictEvery (no background eviction when zero).
func NewMemoryCache(evictEvery time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*memEntry),
		stop:    make(chan struct{}),
	}
	if evictEvery > 0 {
		go c.evictLoop(evictEvery)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || entry.expired(time.Now()) {
		return nil, ErrMiss
	}
	cp := make([]byte, len(entry.value))
	copy(cp, entry.value)
	return cp, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	c.entries[key] = &memEntry{value: cp, expiresAt: expiresAt}
	return nil
}

func (c *MemoryCache) DeleteMatching(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !hasMeta(pattern) {
		delete(c.entries, pattern)
		return nil
	}
	for key := range c.entries {
		if Match(pattern, key) {
			delete(c.entries, key)
		}
	}
	return nil
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := time.Now()
	n := 0
	for _, e := range c.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (c *MemoryCache) Ping(_ context.Context) error { return nil }

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.entries = make(map[string]*memEntry)
	close(c.stop)
	return nil
}

func (c *MemoryCache) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.entries {
				if entry.expired(now) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
