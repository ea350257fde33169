package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/invsaas/backend/internal/domain/coupon"
	"github.com/invsaas/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultCouponKeyPrefix = "coupon:code:"

// NewClient connects to Redis and verifies the connection
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisCouponCache implements coupon.Cache on Redis so every instance sees
// the same invalidations
type RedisCouponCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *zap.Logger
}

var _ coupon.Cache = (*RedisCouponCache)(nil)

// RedisCouponCacheOption is a functional option for configuring the cache
type RedisCouponCacheOption func(*RedisCouponCache)

// WithKeyPrefix overrides the key prefix
func WithKeyPrefix(prefix string) RedisCouponCacheOption {
	return func(c *RedisCouponCache) {
		c.keyPrefix = prefix
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisCouponCacheOption {
	return func(c *RedisCouponCache) {
		c.logger = logger
	}
}

// NewRedisCouponCache creates a cache on an existing client. The caller
// keeps ownership of the client.
func NewRedisCouponCache(client *redis.Client, ttl time.Duration, opts ...RedisCouponCacheOption) *RedisCouponCache {
	c := &RedisCouponCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: defaultCouponKeyPrefix,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCouponCache) key(code string) string {
	return c.keyPrefix + coupon.NormalizeCode(code)
}

// Get retrieves a coupon by code
func (c *RedisCouponCache) Get(ctx context.Context, code string) (*coupon.Coupon, error) {
	data, err := c.client.Get(ctx, c.key(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get coupon from cache: %w", err)
	}

	cp, err := decodeCoupon(data)
	if err != nil {
		// A corrupt entry is dropped and treated as a miss
		c.logger.Warn("Dropping undecodable cached coupon", zap.String("code", code), zap.Error(err))
		_ = c.client.Del(ctx, c.key(code)).Err()
		return nil, nil
	}
	return cp, nil
}

// Set stores a coupon under its code
func (c *RedisCouponCache) Set(ctx context.Context, cp *coupon.Coupon) error {
	if cp == nil {
		return nil
	}
	data, err := encodeCoupon(cp)
	if err != nil {
		return fmt.Errorf("failed to encode coupon: %w", err)
	}
	if err := c.client.Set(ctx, c.key(cp.Code), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache coupon: %w", err)
	}
	return nil
}

// Delete removes a coupon by code
func (c *RedisCouponCache) Delete(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, c.key(code)).Err(); err != nil {
		return fmt.Errorf("failed to delete coupon from cache: %w", err)
	}
	return nil
}
