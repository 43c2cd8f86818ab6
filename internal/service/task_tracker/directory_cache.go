package task_tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const directoryKeyPrefix = "clausewise:directory"

// Cache is the key/value store behind the directory cache.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type redisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

type cachedDirectory struct {
	Tracker
	cache Cache
	ttl   time.Duration
}

// WithDirectoryCache caches successful user lookups of tracker. Misses are not
// cached so that newly invited people resolve on the next submission. Cache
// failures fall through to the tracker.
func WithDirectoryCache(tracker Tracker, cache Cache, ttl time.Duration) Tracker {
	return &cachedDirectory{
		Tracker: tracker,
		cache:   cache,
		ttl:     ttl,
	}
}

func (d *cachedDirectory) LookupUser(ctx context.Context, email string) (string, bool, error) {
	key := DirectoryKey(d.Name(), email)

	accountID, found, err := d.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "directory cache read failed", "key", key, "error", err)
	} else if found {
		slog.DebugContext(ctx, "directory cache hit", "key", key)
		return accountID, true, nil
	}

	accountID, found, err = d.Tracker.LookupUser(ctx, email)
	if err != nil || !found {
		return accountID, found, err
	}

	if err := d.cache.Set(ctx, key, accountID, d.ttl); err != nil {
		slog.WarnContext(ctx, "directory cache write failed", "key", key, "error", err)
	}
	return accountID, true, nil
}

func DirectoryKey(provider, email string) string {
	return fmt.Sprintf("%s:%s:%s", directoryKeyPrefix, provider, strings.ToLower(strings.TrimSpace(email)))
}
