// Package cache stores rendered catalog listings so repeated storefront
// reads skip the database.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache is a byte-oriented key/value cache. A miss is reported with ok=false
// and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte) error         { return nil }
func (Noop) Delete(context.Context, ...string) error           { return nil }

// RedisOptions configures a Redis cache.
type RedisOptions struct {
	URL       string
	Namespace string
	TTL       time.Duration
}

// Redis is a Cache backed by Redis. All keys are prefixed with the namespace.
type Redis struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedis connects to the server at opts.URL and verifies it answers.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}
	redisOpt, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(redisOpt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisWithClient(client, opts.Namespace, opts.TTL), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, namespace string, ttl time.Duration) *Redis {
	return &Redis{client: client, namespace: namespace, ttl: ttl}
}

func (c *Redis) key(k string) string {
	if c.namespace == "" {
		return k
	}
	return c.namespace + ":" + k
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return val, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (c *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Redis) Close() error {
	return c.client.Close()
}
