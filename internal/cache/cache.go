// Package cache stores the latest index snapshot in Redis so the HTTP API
// and other consumers can read prices without hitting NSE.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"niftyscan/internal/config"
	"niftyscan/internal/nse"
)

const snapshotKey = "niftyscan:index:latest"

// SnapshotCache is a write-through cache of the most recent index fetch.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClient builds a Redis client from configuration.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 100 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})
}

// NewSnapshotCache wraps an existing Redis client.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

// SetSnapshot stores the quotes under the snapshot key with the configured
// TTL.
func (c *SnapshotCache) SetSnapshot(ctx context.Context, quotes []nse.IndexQuote) error {
	data, err := json.Marshal(quotes)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the cached quotes. The second return value is false
// when no snapshot is present or it has expired.
func (c *SnapshotCache) GetSnapshot(ctx context.Context) ([]nse.IndexQuote, bool, error) {
	data, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get snapshot: %w", err)
	}

	var quotes []nse.IndexQuote
	if err := json.Unmarshal(data, &quotes); err != nil {
		return nil, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return quotes, true, nil
}

// Ping checks connectivity.
func (c *SnapshotCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}
