package cache

import (
	"context"
	"testing"
	"time"

	"github.com/invsaas/backend/internal/domain/coupon"
	"github.com/invsaas/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCoupon(t *testing.T) *coupon.Coupon {
	t.Helper()
	total := 50
	expiry := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	c, err := coupon.NewCoupon(coupon.Spec{
		Code:            "CACHE20",
		Type:            coupon.DiscountPercentage,
		Value:           decimal.NewFromInt(20),
		ApplicablePlans: []string{"pro"},
		ExpiryDate:      &expiry,
		UsageLimitTotal: &total,
		Description:     "cached",
	})
	require.NoError(t, err)
	c.UsedCount = 7
	return c
}

func TestSnapshot_PreservesValidationFields(t *testing.T) {
	c := newTestCoupon(t)

	data, err := encodeCoupon(c)
	require.NoError(t, err)
	got, err := decodeCoupon(data)
	require.NoError(t, err)

	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.Code, got.Code)
	assert.Equal(t, c.Discount.Type, got.Discount.Type)
	assert.True(t, c.Discount.Value.Equal(got.Discount.Value))
	assert.Equal(t, c.ApplicablePlans, got.ApplicablePlans)
	require.NotNil(t, got.ExpiryDate)
	assert.True(t, c.ExpiryDate.Equal(*got.ExpiryDate))
	assert.Equal(t, 50, *got.UsageLimit.Total)
	assert.Equal(t, 7, got.UsedCount)
	assert.True(t, got.IsActive)
	assert.Empty(t, got.GetDomainEvents())
}

func TestInMemoryCouponCache(t *testing.T) {
	ctx := context.Background()
	c := newTestCoupon(t)

	t.Run("miss returns nil without error", func(t *testing.T) {
		cache := NewInMemoryCouponCache(time.Minute)
		got, err := cache.Get(ctx, "NOPE")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("set then get by any casing", func(t *testing.T) {
		cache := NewInMemoryCouponCache(time.Minute)
		require.NoError(t, cache.Set(ctx, c))

		got, err := cache.Get(ctx, " cache20 ")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, c.ID, got.ID)

		got.IsActive = false
		again, err := cache.Get(ctx, "CACHE20")
		require.NoError(t, err)
		assert.True(t, again.IsActive, "cached value must not alias returned coupons")
	})

	t.Run("delete", func(t *testing.T) {
		cache := NewInMemoryCouponCache(time.Minute)
		require.NoError(t, cache.Set(ctx, c))
		require.NoError(t, cache.Delete(ctx, "cache20"))

		got, err := cache.Get(ctx, "CACHE20")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("expired entries are evicted", func(t *testing.T) {
		cache := NewInMemoryCouponCache(time.Minute)
		now := time.Now()
		cache.now = func() time.Time { return now }
		require.NoError(t, cache.Set(ctx, c))

		cache.now = func() time.Time { return now.Add(2 * time.Minute) }
		got, err := cache.Get(ctx, "CACHE20")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Zero(t, cache.Len())
	})

	t.Run("nil coupon is ignored", func(t *testing.T) {
		cache := NewInMemoryCouponCache(time.Minute)
		require.NoError(t, cache.Set(ctx, nil))
		assert.Zero(t, cache.Len())
	})
}

func TestRedisCouponCache_ErrorsWhenUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	cache := NewRedisCouponCache(client, time.Minute)
	ctx := context.Background()

	_, err := cache.Get(ctx, "CACHE20")
	assert.Error(t, err)
	assert.Error(t, cache.Set(ctx, newTestCoupon(t)))
	assert.Error(t, cache.Delete(ctx, "CACHE20"))
}

func TestRedisCouponCache_KeyIsNormalized(t *testing.T) {
	cache := NewRedisCouponCache(nil, time.Minute, WithKeyPrefix("test:"))
	assert.Equal(t, "test:SAVE10", cache.key(" save10 "))
}

func TestNewCouponCache_FallsBackToMemory(t *testing.T) {
	couponCfg := config.CouponConfig{CacheTTL: time.Minute}

	t.Run("disabled", func(t *testing.T) {
		cache, client := NewCouponCache(config.RedisConfig{Enabled: false}, couponCfg, zap.NewNop())
		assert.Nil(t, client)
		assert.IsType(t, &InMemoryCouponCache{}, cache)
	})

	t.Run("unreachable", func(t *testing.T) {
		cache, client := NewCouponCache(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}, couponCfg, zap.NewNop())
		assert.Nil(t, client)
		assert.IsType(t, &InMemoryCouponCache{}, cache)
	})
}
