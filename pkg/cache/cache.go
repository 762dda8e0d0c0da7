// Package cache provides the TTL cache used by the query expander and facet
// aggregator. It is an explicit dependency passed into those components so
// tests can swap in the no-op implementation.
package cache

import (
	"context"
	"time"
)

// Cache is a key → bytes store with per-entry TTL. Implementations must be
// safe for concurrent use. Values are opaque; callers handle serialization.
type Cache interface {
	// Get returns the cached value for key, or false if absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete removes key if present.
	Delete(ctx context.Context, key string)
}

// Noop is a Cache that stores nothing. Used in tests and when caching is
// disabled.
type Noop struct{}

// NewNoop creates a no-op cache.
func NewNoop() *Noop {
	return &Noop{}
}

func (*Noop) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }

func (*Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {}

func (*Noop) Delete(ctx context.Context, key string) {}

var _ Cache = (*Noop)(nil)
