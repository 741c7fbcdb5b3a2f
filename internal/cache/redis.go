package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to url, which may be a redis:// URL or a bare
// host:port, and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if !strings.Contains(url, "://") {
		url = "redis://" + url
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// RedisCache stores JSON-encoded values under a key prefix with a fixed TTL.
// Redis expires entries itself, so RedisCache needs no cleanup.
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache[T any](client *redis.Client, prefix string, ttl time.Duration) *RedisCache[T] {
	return &RedisCache[T]{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		slog.WarnContext(ctx, "Redis get failed", "key", key, "error", err)
		return zero, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		slog.WarnContext(ctx, "Discarding undecodable cache entry", "key", key, "error", err)
		c.Delete(ctx, key)
		return zero, false
	}
	return v, true
}

func (c *RedisCache[T]) Set(ctx context.Context, key string, data T) {
	b, err := json.Marshal(data)
	if err != nil {
		slog.WarnContext(ctx, "Cache value not encodable", "key", key, "error", err)
		return
	}
	if err := c.client.SetEx(ctx, c.prefix+key, b, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Redis set failed", "key", key, "error", err)
	}
}

func (c *RedisCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		slog.WarnContext(ctx, "Redis delete failed", "key", key, "error", err)
	}
}

// Size counts the keys under the cache prefix.
func (c *RedisCache[T]) Size() int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		slog.Warn("Redis scan failed", "error", err)
	}
	return n
}
