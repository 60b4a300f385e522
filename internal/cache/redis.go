package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const scanBatch = 500

// RedisCache implements Cache on Redis. Keys are stored verbatim unless a
// prefix is configured, so entries stay readable by other deployments of the
// catalog that share the instance.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// RedisConfig holds connection details for the Redis cache.
type RedisConfig struct {
	URL       string // e.g. redis://:password@redis:6379/0
	KeyPrefix string
}

// NewRedisCache parses cfg.URL and creates a client. It does not dial;
// reachability is checked lazily by every call and by Ping.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisCacheFromClient(redis.NewClient(opts), cfg.KeyPrefix), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeleteMatching walks the keyspace with SCAN MATCH and deletes in batches,
// so it never blocks Redis the way KEYS would.
func (c *RedisCache) DeleteMatching(ctx context.Context, pattern string) error {
	if !hasMeta(pattern) {
		if err := c.client.Del(ctx, c.key(pattern)).Err(); err != nil {
			return fmt.Errorf("redis del %s: %w", pattern, err)
		}
		return nil
	}

	iter := c.client.Scan(ctx, 0, c.key(pattern), scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis del matching %s: %w", pattern, err)
		}
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	return flush()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
