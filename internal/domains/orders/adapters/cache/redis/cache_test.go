package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, ttl), server
}

func TestCache_RoundTripAndInvalidate(t *testing.T) {
	cache, server := newTestCache(t, time.Minute)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	order, err := domain.NewOrder("o-1", "l-1", "buyer", "seller", decimal.RequireFromString("10.25"), 2, now)
	require.NoError(t, err)
	order.Version = 3

	miss, err := cache.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, cache.Set(ctx, order))
	assert.True(t, server.Exists("order:o-1"))
	assert.Equal(t, time.Minute, server.TTL("order:o-1"))

	hit, err := cache.Get(ctx, "o-1")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "seller", hit.SellerID)
	assert.Equal(t, int64(3), hit.Version)
	assert.True(t, hit.Amount.Equal(order.Amount))
	assert.True(t, hit.DeliveryDate.Equal(order.DeliveryDate))

	require.NoError(t, cache.Invalidate(ctx, "o-1"))
	assert.False(t, server.Exists("order:o-1"))
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	cache, server := newTestCache(t, 0)
	ctx := context.Background()

	order, err := domain.NewOrder("o-1", "l-1", "buyer", "seller", decimal.Zero, 1, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, order))

	server.FastForward(DefaultTTL + time.Second)

	miss, err := cache.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestCache_UnavailableServerReturnsError(t *testing.T) {
	cache, server := newTestCache(t, time.Minute)
	server.Close()

	_, err := cache.Get(context.Background(), "o-1")
	assert.Error(t, err)
}

func TestCache_SetKeepsNewerVersion(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	stale, err := domain.NewOrder("o-1", "l-1", "buyer", "seller", decimal.NewFromInt(10), 2, now)
	require.NoError(t, err)
	stale.Version = 1
	fresh := stale.Clone()
	fresh.Status = domain.StatusActive
	fresh.Version = 2

	require.NoError(t, cache.Set(ctx, fresh))
	require.NoError(t, cache.Set(ctx, stale))

	hit, err := cache.Get(ctx, "o-1")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, domain.StatusActive, hit.Status)
	assert.Equal(t, int64(2), hit.Version)

	newer := fresh.Clone()
	newer.Status = domain.StatusInProgress
	newer.Version = 3
	require.NoError(t, cache.Set(ctx, newer))

	hit, err = cache.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, hit.Status)
}
