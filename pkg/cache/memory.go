package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Memory is an in-process TTL cache with bounded size. When full, the least
// recently accessed entry is evicted on insert.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	maxSize int
	stop    chan struct{}
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
	// lastAccess is updated under the read lock, so it must be atomic.
	lastAccess atomic.Int64
}

// NewMemory creates an in-process cache holding at most maxSize entries.
func NewMemory(maxSize int) *Memory {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Memory{
		entries: make(map[string]*memoryEntry),
		maxSize: maxSize,
		stop:    make(chan struct{}),
	}
}

// Get retrieves a value from the cache.
func (c *Memory) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	// Expired entries are left for the cleanup loop
	if time.Now().After(entry.expiresAt) {
		return nil, false
	}

	entry.lastAccess.Store(time.Now().UnixNano())
	return entry.value, true
}

// Set stores a value in the cache.
func (c *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		if _, exists := c.entries[key]; !exists {
			c.evictOldest()
		}
	}

	now := time.Now()
	entry := &memoryEntry{
		value:     value,
		expiresAt: now.Add(ttl),
	}
	entry.lastAccess.Store(now.UnixNano())
	c.entries[key] = entry
}

// Delete removes a key from the cache.
func (c *Memory) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// evictOldest removes the least recently accessed entry. Caller holds the lock.
func (c *Memory) evictOldest() {
	var oldestKey string
	var oldestAccess int64

	for key, entry := range c.entries {
		access := entry.lastAccess.Load()
		if oldestKey == "" || access < oldestAccess {
			oldestKey = key
			oldestAccess = access
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// StartCleanup launches a goroutine that removes expired entries every
// interval. Stop it with StopCleanup.
func (c *Memory) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.removeExpired()
			case <-c.stop:
				return
			}
		}
	}()
}

// StopCleanup stops the cleanup goroutine.
func (c *Memory) StopCleanup() {
	close(c.stop)
}

func (c *Memory) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

var _ Cache = (*Memory)(nil)
