// Package cache holds the server-side cache for the unpaginated dropdown
// listings. Entries are keyed per resource and dropped whenever a mutation
// could change what the listing returns.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "ssis:dropdown:"

// DropdownCache stores the JSON form of a resource's dropdown listing.
type DropdownCache interface {
	// Get decodes the cached listing into dst. It reports false on a miss.
	Get(ctx context.Context, resource string, dst interface{}) (bool, error)
	Set(ctx context.Context, resource string, value interface{}) error
	Invalidate(ctx context.Context, resources ...string) error
	Close() error
}

// Key returns the cache key of a resource's dropdown listing.
func Key(resource string) string {
	return keyPrefix + resource
}

// RedisCache is a DropdownCache backed by Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, opts Options) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return NewRedisCacheWithClient(client, opts.TTL), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, resource string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, Key(resource)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s dropdown from redis: %w", resource, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached %s dropdown: %w", resource, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, resource string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s dropdown: %w", resource, err)
	}
	if err := c.client.Set(ctx, Key(resource), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s dropdown to redis: %w", resource, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, resources ...string) error {
	if len(resources) == 0 {
		return nil
	}
	keys := make([]string, len(resources))
	for i, r := range resources {
		keys[i] = Key(r)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate dropdowns %v: %w", resources, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop never stores anything. It is used when Redis is disabled.
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, interface{}) error         { return nil }
func (Nop) Invalidate(context.Context, ...string) error            { return nil }
func (Nop) Close() error                                           { return nil }
