package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is a Cache backed by a shared Redis instance, so identical queries
// hitting different engine replicas share expansion and facet results.
type Redis struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedis creates a Redis-backed cache. All keys are namespaced with prefix.
func NewRedis(client *redis.Client, prefix string, logger *zap.Logger) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		logger: logger.Named("cache"),
	}
}

func (c *Redis) key(key string) string {
	return c.prefix + ":" + key
}

// Get retrieves a value from Redis. Transport errors are treated as cache
// misses; the cache is an optimization, never a source of truth.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Debug("Redis get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return val, true
}

// Set stores a value in Redis with the given TTL.
func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		c.logger.Debug("Redis set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes a key from Redis.
func (c *Redis) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.logger.Debug("Redis delete failed", zap.String("key", key), zap.Error(err))
	}
}

var _ Cache = (*Redis)(nil)
