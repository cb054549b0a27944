// Package cache stores JSON documents in redis. Failures are logged and reported as misses so a
// cache outage only costs extra provider calls.
package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Redis  redis.UniversalClient
	Prefix string
	// TTL of every entry. Zero or less disables caching.
	TTL time.Duration
}

type Cache struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New returns a cache. A nil Redis or a non-positive TTL disables caching.
func New(c Config) *Cache {
	return &Cache{
		redis:  c.Redis,
		prefix: c.Prefix,
		ttl:    c.TTL,
	}
}

func (c *Cache) disabled() bool {
	return c == nil || c.redis == nil || c.ttl <= 0
}

// Get decodes the document stored under key into v and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, v any) bool {
	if c.disabled() {
		return false
	}

	k := c.getKey(key)
	b, err := c.redis.Get(ctx, k).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		slog.WarnContext(ctx, "cache: get failed", "key", k, "error", err)
		return false
	}

	if err := json.Unmarshal(b, v); err != nil {
		slog.WarnContext(ctx, "cache: decode failed", "key", k, "error", err)
		return false
	}

	return true
}

func (c *Cache) Set(ctx context.Context, key string, v any) {
	if c.disabled() {
		return
	}

	k := c.getKey(key)
	b, err := json.Marshal(v)
	if err != nil {
		slog.WarnContext(ctx, "cache: encode failed", "key", k, "error", err)
		return
	}

	if err := c.redis.Set(ctx, k, b, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "cache: set failed", "key", k, "error", err)
	}
}

// Key joins parts into a normalized cache key.
func Key(parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(norm, ":")
}

func (c *Cache) getKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}
