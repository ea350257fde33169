package coupon

import (
	"context"
	"fmt"

	"github.com/invsaas/backend/internal/domain/coupon"
	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/invsaas/backend/internal/infrastructure/telemetry"
)

// CacheInvalidationHandler evicts a coupon from the read cache whenever its
// definition or used_count changes
type CacheInvalidationHandler struct {
	cache coupon.Cache
}

// NewCacheInvalidationHandler creates a new CacheInvalidationHandler
func NewCacheInvalidationHandler(cache coupon.Cache) *CacheInvalidationHandler {
	return &CacheInvalidationHandler{cache: cache}
}

// EventTypes returns the event types this handler is interested in
func (h *CacheInvalidationHandler) EventTypes() []string {
	return []string{
		coupon.EventTypeCouponActivated,
		coupon.EventTypeCouponDeactivated,
		coupon.EventTypeCouponDeleted,
		coupon.EventTypeCouponRedeemed,
	}
}

// Handle evicts the coupon named by the event
func (h *CacheInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	code, ok := eventCode(event)
	if !ok {
		return fmt.Errorf("unexpected event %T for cache invalidation", event)
	}
	if err := h.cache.Delete(ctx, code); err != nil {
		return fmt.Errorf("failed to evict coupon %s: %w", code, err)
	}
	return nil
}

func eventCode(event shared.DomainEvent) (string, bool) {
	switch e := event.(type) {
	case *coupon.CouponActivatedEvent:
		return e.Code, true
	case *coupon.CouponDeactivatedEvent:
		return e.Code, true
	case *coupon.CouponDeletedEvent:
		return e.Code, true
	case *coupon.CouponRedeemedEvent:
		return e.Code, true
	}
	return "", false
}

// RedemptionMetricsHandler counts committed redemptions and the discount
// they granted
type RedemptionMetricsHandler struct {
	metrics *telemetry.CouponMetrics
}

// NewRedemptionMetricsHandler creates a new RedemptionMetricsHandler
func NewRedemptionMetricsHandler(metrics *telemetry.CouponMetrics) *RedemptionMetricsHandler {
	return &RedemptionMetricsHandler{metrics: metrics}
}

// EventTypes returns the event types this handler is interested in
func (h *RedemptionMetricsHandler) EventTypes() []string {
	return []string{coupon.EventTypeCouponRedeemed}
}

// Handle records the redemption
func (h *RedemptionMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*coupon.CouponRedeemedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for redemption metrics", event)
	}
	h.metrics.RecordRedemption(ctx, e.PlanID, e.Type.String(), e.DiscountAmount)
	return nil
}
