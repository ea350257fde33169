package coupon

import (
	"context"
	"time"

	"github.com/invsaas/backend/internal/domain/coupon"
	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/invsaas/backend/internal/infrastructure/logger"
	"github.com/invsaas/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// FinalizeFunc completes the caller's purchase inside the redemption
// transaction. Returning an error rolls the redemption back.
type FinalizeFunc func(ctx context.Context, applied *AppliedCoupon) error

// RedemptionService validates coupons against purchase attempts and redeems
// them
type RedemptionService struct {
	couponRepo     coupon.CouponRepository
	usageRepo      coupon.UsageRepository
	txManager      shared.TxManager
	cache          coupon.Cache
	eventPublisher shared.EventPublisher
	metrics        *telemetry.CouponMetrics
	now            func() time.Time
}

// NewRedemptionService creates a new RedemptionService
func NewRedemptionService(
	couponRepo coupon.CouponRepository,
	usageRepo coupon.UsageRepository,
	txManager shared.TxManager,
) *RedemptionService {
	return &RedemptionService{
		couponRepo: couponRepo,
		usageRepo:  usageRepo,
		txManager:  txManager,
		now:        time.Now,
	}
}

// SetCache sets the read cache used by previews
func (s *RedemptionService) SetCache(cache coupon.Cache) {
	s.cache = cache
}

// SetEventPublisher sets the publisher for CouponRedeemed events
func (s *RedemptionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetCouponMetrics sets the metrics recorder
func (s *RedemptionService) SetCouponMetrics(m *telemetry.CouponMetrics) {
	s.metrics = m
}

// Preview validates a coupon against a candidate purchase without redeeming
// it. The coupon is read through the cache, so the limit check may lag a
// concurrent redemption; Apply always re-checks against the database.
func (s *RedemptionService) Preview(ctx context.Context, cmd PreviewCommand) (*DiscountPreview, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "coupon", "preview",
		telemetry.SpanAttrCouponCode, coupon.NormalizeCode(cmd.Code),
		telemetry.SpanAttrPlanID, cmd.PlanID.String(),
	)
	defer span.End()

	d, err := s.preview(ctx, cmd)
	s.recordValidation(ctx, cmd.PlanID, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return toDiscountPreview(d, cmd.PlanID), nil
}

func (s *RedemptionService) preview(ctx context.Context, cmd PreviewCommand) (*coupon.ValidatedDiscount, error) {
	c, err := s.findCached(ctx, cmd.Code)
	if err != nil {
		return nil, err
	}

	prior, err := s.priorRedemptions(ctx, c, cmd)
	if err != nil {
		return nil, err
	}

	return coupon.Validate(c, coupon.Attempt{
		PlanID:               cmd.PlanID,
		UserID:               cmd.UserID,
		Amount:               cmd.Amount,
		PriorUserRedemptions: prior,
		Now:                  s.now(),
	})
}

func (s *RedemptionService) priorRedemptions(ctx context.Context, c *coupon.Coupon, cmd PreviewCommand) (int64, error) {
	if !c.UsageLimit.PerUser {
		return 0, nil
	}
	return s.usageRepo.CountByCouponAndUser(ctx, c.ID, cmd.UserID)
}

func (s *RedemptionService) findCached(ctx context.Context, code string) (*coupon.Coupon, error) {
	if s.cache == nil {
		return s.couponRepo.FindByCode(ctx, code)
	}

	c, err := s.cache.Get(ctx, code)
	if err != nil {
		logger.L(ctx).Warn("coupon cache read failed", zap.String("code", code), zap.Error(err))
	}
	if c != nil {
		return c, nil
	}

	c, err = s.couponRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, c); err != nil {
		logger.L(ctx).Warn("coupon cache write failed", zap.String("code", c.Code), zap.Error(err))
	}
	return c, nil
}

// Apply redeems a coupon for a purchase. Validation on a fresh read, the
// used_count increment, the usage row and finalize all run in one
// transaction; any failure rolls all of them back. CouponRedeemed is
// published only after commit.
func (s *RedemptionService) Apply(ctx context.Context, cmd ApplyCommand, finalize FinalizeFunc) (*AppliedCoupon, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "coupon", "apply",
		telemetry.SpanAttrCouponCode, coupon.NormalizeCode(cmd.Code),
		telemetry.SpanAttrPlanID, cmd.PlanID.String(),
		telemetry.SpanAttrTenantID, cmd.TenantID.String(),
		telemetry.SpanAttrUserID, cmd.UserID.String(),
		telemetry.SpanAttrPurchaseID, cmd.PurchaseID.String(),
	)
	defer span.End()

	var (
		applied  *AppliedCoupon
		redeemed *coupon.CouponRedeemedEvent
	)
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.couponRepo.FindByCode(ctx, cmd.Code)
		if err != nil {
			return err
		}

		prior, err := s.priorRedemptions(ctx, c, PreviewCommand{UserID: cmd.UserID})
		if err != nil {
			return err
		}

		d, err := coupon.Validate(c, coupon.Attempt{
			PlanID:               cmd.PlanID,
			UserID:               cmd.UserID,
			Amount:               cmd.Amount,
			PriorUserRedemptions: prior,
			Now:                  s.now(),
		})
		if err != nil {
			return err
		}

		ok, err := s.couponRepo.IncrementUsage(ctx, c.ID)
		if err != nil {
			return err
		}
		if !ok {
			return s.lostIncrement(ctx, c)
		}
		c.UsedCount++

		usage := coupon.NewCouponUsage(c, d, cmd.PurchaseID, cmd.TenantID, cmd.UserID, cmd.PlanID)
		if err := s.usageRepo.Create(ctx, usage); err != nil {
			return err
		}

		applied = toAppliedCoupon(d, usage)
		if finalize != nil {
			if err := finalize(ctx, applied); err != nil {
				return err
			}
		}

		redeemed = coupon.NewCouponRedeemedEvent(c, usage)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.recordFailure(ctx, cmd, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrCouponID, applied.CouponID.String())
	logger.L(ctx).Info("coupon redeemed",
		zap.String("coupon_id", applied.CouponID.String()),
		zap.String("code", applied.Code),
		zap.String("plan_id", cmd.PlanID.String()),
		zap.String("purchase_id", cmd.PurchaseID.String()),
		zap.String("discount_amount", applied.DiscountAmount.StringFixed(2)),
	)

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, redeemed); err != nil {
			logger.L(ctx).Warn("failed to publish CouponRedeemed", zap.Error(err))
		}
	}
	return applied, nil
}

// lostIncrement explains a conditional increment that matched no row: the
// coupon was switched off, deleted, or its last slot went to a concurrent
// redemption after validation.
func (s *RedemptionService) lostIncrement(ctx context.Context, c *coupon.Coupon) error {
	current, err := s.couponRepo.FindByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if !current.IsActive {
		return coupon.ErrInactive
	}
	return coupon.ErrLimitReached
}

func (s *RedemptionService) recordValidation(ctx context.Context, plan subscription.PlanID, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordValidation(ctx, plan, outcomeOf(err))
}

func (s *RedemptionService) recordFailure(ctx context.Context, cmd ApplyCommand, err error) {
	l := logger.L(ctx).With(
		zap.String("code", coupon.NormalizeCode(cmd.Code)),
		zap.String("plan_id", cmd.PlanID.String()),
		zap.String("purchase_id", cmd.PurchaseID.String()),
	)
	if coupon.IsRedemptionRejection(err) {
		l.Info("coupon redemption rejected", zap.String("reason", shared.CodeOf(err)))
	} else {
		l.Error("coupon redemption failed", zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordRedemptionFailure(ctx, cmd.PlanID, outcomeOf(err))
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return telemetry.OutcomeSuccess
	}
	if code := shared.CodeOf(err); code != "" {
		return code
	}
	return telemetry.OutcomeError
}
