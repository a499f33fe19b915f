// Package cache memoizes completed reports in Redis per (address, chain)
// key. Concurrent misses for the same key coalesce into a single compute so
// repeated queries never duplicate the upstream fan-out.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/web3-frozen/wallet-risk/internal/analysis"
	"github.com/web3-frozen/wallet-risk/internal/metrics"
)

const keyPrefix = "report:"

// computeBudget bounds a coalesced compute once it is detached from the
// caller that triggered it.
const computeBudget = 60 * time.Second

type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// New creates a Cache backed by Redis.
func New(redisURL, password string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}, nil
}

// Close shuts down the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Ping reports whether Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetOrCompute returns the cached report for the query or runs compute to
// build, store, and return a fresh one. At most one compute runs per key at
// a time; concurrent callers share its result. A Redis outage degrades to
// compute-through rather than failing the request.
func (c *Cache) GetOrCompute(ctx context.Context, q analysis.WalletQuery, compute func(context.Context) analysis.ReportPayload) analysis.ReportPayload {
	key := keyPrefix + q.Key()

	if payload, ok := c.get(ctx, key); ok {
		metrics.CacheHits.Inc()
		return payload
	}
	metrics.CacheMisses.Inc()

	v, _, _ := c.group.Do(key, func() (any, error) {
		// The compute serves every coalesced caller, so it must not die
		// with whichever caller happened to trigger it. Detach from that
		// caller's cancellation and run under the compute budget instead.
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeBudget)
		defer cancel()

		// Re-check under the flight guard: another caller may have stored
		// the report between our miss and this compute.
		if payload, ok := c.get(dctx, key); ok {
			return payload, nil
		}
		payload := compute(dctx)
		c.set(dctx, key, payload)
		return payload, nil
	})
	return v.(analysis.ReportPayload)
}

// Invalidate drops the cached report for a key.
func (c *Cache) Invalidate(ctx context.Context, q analysis.WalletQuery) {
	if err := c.rdb.Del(ctx, keyPrefix+q.Key()).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", "key", q.Key(), "error", err)
	}
}

func (c *Cache) get(ctx context.Context, key string) (analysis.ReportPayload, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return analysis.ReportPayload{}, false
	}
	var payload analysis.ReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.logger.Warn("cache entry corrupt, dropping", "key", key, "error", err)
		c.rdb.Del(ctx, key)
		return analysis.ReportPayload{}, false
	}
	return payload, true
}

func (c *Cache) set(ctx context.Context, key string, payload analysis.ReportPayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
