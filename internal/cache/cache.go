// Package cache keeps dance-search results in Redis so repeated keystrokes
// from the picker do not each hit the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
)

const (
	keyPrefix = "dances:search:"
	scanCount = 100
)

// NewClient parses a redis:// URL and pings the server. Callers treat an
// error as "run without a cache".
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// DanceCache stores search results as JSON strings under a key derived from
// the lower-cased query.
type DanceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewDanceCache constructs a DanceCache.
func NewDanceCache(rdb *redis.Client, ttl time.Duration) *DanceCache {
	return &DanceCache{rdb: rdb, ttl: ttl}
}

// Key returns the cache key for query.
func Key(query string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(query))
}

// Get returns the cached result for query. A miss is (nil, false, nil).
func (c *DanceCache) Get(ctx context.Context, query string) ([]model.Dance, bool, error) {
	raw, err := c.rdb.Get(ctx, Key(query)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var dances []model.Dance
	if err := json.Unmarshal([]byte(raw), &dances); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return dances, true, nil
}

// Set stores dances for query with the configured TTL.
func (c *DanceCache) Set(ctx context.Context, query string, dances []model.Dance) error {
	if dances == nil {
		dances = []model.Dance{}
	}
	b, err := json.Marshal(dances)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, Key(query), string(b), c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops every cached search. Called after the catalog changes.
func (c *DanceCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, keyPrefix+"*", scanCount).Result()
		if err != nil {
			return fmt.Errorf("cache scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache delete: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
