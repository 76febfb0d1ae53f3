// Package cache keeps the rendered dashboard in Redis between catalog mutations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"cafe-inventory/internal/service"

	"github.com/go-redis/redis/v8"
)

const (
	dashboardKey  = "cafe-inventory:dashboard"
	generationKey = "cafe-inventory:dashboard:generation"
)

// DashboardCache implements service.DashboardCache. Redis failures are logged
// and treated as a miss so the dashboard is always served from the database.
type DashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDashboardCache(client *redis.Client, ttl time.Duration) *DashboardCache {
	return &DashboardCache{client: client, ttl: ttl}
}

func (c *DashboardCache) Get(ctx context.Context) (*service.Dashboard, bool) {
	val, err := c.client.Get(ctx, dashboardKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("cache: get dashboard", "error", err)
		return nil, false
	}

	var dashboard service.Dashboard
	if err := json.Unmarshal(val, &dashboard); err != nil {
		slog.Warn("cache: decode dashboard", "error", err)
		return nil, false
	}
	return &dashboard, true
}

// Generation returns the current invalidation counter, or -1 when Redis is unreachable.
func (c *DashboardCache) Generation(ctx context.Context) int64 {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		slog.Warn("cache: read generation", "error", err)
		return -1
	}
	return gen
}

// Set stores the dashboard if the generation has not moved since it was read.
// The generation key is watched, so an Invalidate between the check and the
// write aborts the transaction.
func (c *DashboardCache) Set(ctx context.Context, generation int64, dashboard *service.Dashboard) {
	if generation < 0 {
		return
	}

	val, err := json.Marshal(dashboard)
	if err != nil {
		slog.Warn("cache: encode dashboard", "error", err)
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, dashboardKey, val, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
	case errors.Is(err, redis.TxFailedErr):
		slog.Debug("cache: dashboard invalidated while computing, not stored")
	default:
		slog.Warn("cache: set dashboard", "error", err)
	}
}

// Invalidate bumps the generation and drops the stored dashboard.
func (c *DashboardCache) Invalidate(ctx context.Context) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, dashboardKey)
		return nil
	})
	if err != nil {
		slog.Warn("cache: invalidate dashboard", "error", err)
	}
}
