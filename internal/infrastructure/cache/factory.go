package cache

import (
	"github.com/invsaas/backend/internal/domain/coupon"
	"github.com/invsaas/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewCouponCache returns a Redis-backed cache when Redis is enabled and
// reachable, and an in-memory cache otherwise. The returned client is nil
// for the in-memory cache; the caller closes it on shutdown.
func NewCouponCache(redisCfg config.RedisConfig, couponCfg config.CouponConfig, logger *zap.Logger) (coupon.Cache, *redis.Client) {
	if !redisCfg.Enabled {
		logger.Info("Redis disabled, using in-memory coupon cache")
		return NewInMemoryCouponCache(couponCfg.CacheTTL), nil
	}

	client, err := NewClient(redisCfg)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory coupon cache. "+
			"Cached previews may be stale on other instances until the TTL expires.",
			zap.String("addr", redisCfg.Addr()),
			zap.Error(err),
		)
		return NewInMemoryCouponCache(couponCfg.CacheTTL), nil
	}

	logger.Info("Using Redis coupon cache", zap.String("addr", redisCfg.Addr()))
	return NewRedisCouponCache(client, couponCfg.CacheTTL, WithCacheLogger(logger)), client
}
