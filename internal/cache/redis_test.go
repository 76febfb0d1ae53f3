package cache

import (
	"context"
	"testing"
	"time"

	"cafe-inventory/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestDashboardCache_SetGetInvalidate(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewDashboardCache(client, time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx)
	assert.False(t, ok)

	c.Set(ctx, c.Generation(ctx), &service.Dashboard{
		TotalStockValue:     decimal.RequireFromString("1050.00"),
		TotalAvailableUnits: 35,
		TotalProducts:       1,
		Products:            []service.ProductSummary{{ID: 1, Name: "Coffee", Quantity: 35}},
	})

	got, ok := c.Get(ctx)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("1050").Equal(got.TotalStockValue))
	assert.Equal(t, 35, got.TotalAvailableUnits)
	require.Len(t, got.Products, 1)
	assert.Equal(t, "Coffee", got.Products[0].Name)

	c.Invalidate(ctx)
	_, ok = c.Get(ctx)
	assert.False(t, ok)
}

func TestDashboardCache_Expires(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewDashboardCache(client, time.Minute)
	ctx := context.Background()

	c.Set(ctx, c.Generation(ctx), &service.Dashboard{TotalProducts: 3})
	mr.FastForward(time.Minute + time.Second)

	_, ok := c.Get(ctx)
	assert.False(t, ok)
}

func TestDashboardCache_RedisDownIsAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	c := NewDashboardCache(client, time.Minute)
	ctx := context.Background()

	gen := c.Generation(ctx)
	assert.Equal(t, int64(-1), gen)

	c.Set(ctx, gen, &service.Dashboard{TotalProducts: 3})
	_, ok := c.Get(ctx)
	assert.False(t, ok)
	c.Invalidate(ctx)
}

func TestDashboardCache_CorruptValueIsAMiss(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewDashboardCache(client, time.Minute)

	require.NoError(t, mr.Set(dashboardKey, "{not json"))

	_, ok := c.Get(context.Background())
	assert.False(t, ok)
}

func TestDashboardCache_StaleGenerationIsNotStored(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewDashboardCache(client, time.Minute)
	ctx := context.Background()

	gen := c.Generation(ctx)
	assert.Equal(t, int64(0), gen)

	// A mutation commits while the dashboard is being computed
	c.Invalidate(ctx)
	assert.Equal(t, int64(1), c.Generation(ctx))

	c.Set(ctx, gen, &service.Dashboard{TotalAvailableUnits: 50})
	_, ok := c.Get(ctx)
	assert.False(t, ok, "dashboard computed before the invalidation must not be cached")

	c.Set(ctx, c.Generation(ctx), &service.Dashboard{TotalAvailableUnits: 1})
	got, ok := c.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, got.TotalAvailableUnits)
}
