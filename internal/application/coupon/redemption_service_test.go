package coupon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/coupon"
	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type redemptionFixture struct {
	svc        *RedemptionService
	couponRepo *MockCouponRepository
	usageRepo  *MockUsageRepository
	tx         *fakeTxManager
	publisher  *recordingPublisher
}

func newRedemptionFixture() *redemptionFixture {
	f := &redemptionFixture{
		couponRepo: new(MockCouponRepository),
		usageRepo:  new(MockUsageRepository),
		tx:         &fakeTxManager{},
		publisher:  &recordingPublisher{},
	}
	f.svc = NewRedemptionService(f.couponRepo, f.usageRepo, f.tx)
	f.svc.SetEventPublisher(f.publisher)
	return f
}

func applyCommand(plan subscription.PlanID, amount string) ApplyCommand {
	return ApplyCommand{
		Code:       "save20",
		PlanID:     plan,
		UserID:     uuid.New(),
		TenantID:   uuid.New(),
		PurchaseID: uuid.New(),
		Amount:     decimal.RequireFromString(amount),
	}
}

func TestRedemptionService_Preview(t *testing.T) {
	ctx := context.Background()

	t.Run("percentage discount", func(t *testing.T) {
		f := newRedemptionFixture()
		c := newTestCoupon()
		f.couponRepo.On("FindByCode", mock.Anything, "SAVE20").Return(c, nil)

		preview, err := f.svc.Preview(ctx, PreviewCommand{
			Code:   "SAVE20",
			PlanID: subscription.PlanPro,
			UserID: uuid.New(),
			Amount: decimal.NewFromInt(1000),
		})
		require.NoError(t, err)
		assert.Equal(t, "200", preview.DiscountAmount.String())
		assert.Equal(t, "800", preview.FinalAmount.String())
		assert.Equal(t, "pro", preview.PlanID)
		assert.Zero(t, f.tx.calls)
	})

	t.Run("cache miss fills the cache", func(t *testing.T) {
		f := newRedemptionFixture()
		cache := new(MockCache)
		f.svc.SetCache(cache)
		c := newTestCoupon()

		cache.On("Get", mock.Anything, "save20").Return(nil, nil)
		f.couponRepo.On("FindByCode", mock.Anything, "save20").Return(c, nil)
		cache.On("Set", mock.Anything, c).Return(nil)

		_, err := f.svc.Preview(ctx, PreviewCommand{Code: "save20", PlanID: subscription.PlanBasic, Amount: decimal.NewFromInt(999)})
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("cache hit skips the repository", func(t *testing.T) {
		f := newRedemptionFixture()
		cache := new(MockCache)
		f.svc.SetCache(cache)
		cache.On("Get", mock.Anything, "SAVE20").Return(newTestCoupon(), nil)

		_, err := f.svc.Preview(ctx, PreviewCommand{Code: "SAVE20", PlanID: subscription.PlanPro, Amount: decimal.NewFromInt(10)})
		require.NoError(t, err)
		f.couponRepo.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
	})

	t.Run("cache errors fall back to the repository", func(t *testing.T) {
		f := newRedemptionFixture()
		cache := new(MockCache)
		f.svc.SetCache(cache)
		c := newTestCoupon()
		cache.On("Get", mock.Anything, "SAVE20").Return(nil, errors.New("redis down"))
		f.couponRepo.On("FindByCode", mock.Anything, "SAVE20").Return(c, nil)
		cache.On("Set", mock.Anything, c).Return(errors.New("redis down"))

		_, err := f.svc.Preview(ctx, PreviewCommand{Code: "SAVE20", PlanID: subscription.PlanPro, Amount: decimal.NewFromInt(10)})
		require.NoError(t, err)
	})

	t.Run("per-user coupon already used by the caller", func(t *testing.T) {
		f := newRedemptionFixture()
		c := newTestCoupon(withPerUser())
		userID := uuid.New()
		f.couponRepo.On("FindByCode", mock.Anything, "SAVE20").Return(c, nil)
		f.usageRepo.On("CountByCouponAndUser", mock.Anything, c.ID, userID).Return(int64(1), nil)

		_, err := f.svc.Preview(ctx, PreviewCommand{Code: "SAVE20", PlanID: subscription.PlanPro, UserID: userID, Amount: decimal.NewFromInt(10)})
		assert.ErrorIs(t, err, coupon.ErrAlreadyUsed)
	})

	t.Run("plan not eligible", func(t *testing.T) {
		f := newRedemptionFixture()
		f.couponRepo.On("FindByCode", mock.Anything, "SAVE20").Return(newTestCoupon(), nil)

		_, err := f.svc.Preview(ctx, PreviewCommand{Code: "SAVE20", PlanID: subscription.PlanEnterprise, Amount: decimal.NewFromInt(10)})
		assert.ErrorIs(t, err, coupon.ErrPlanNotEligible)
	})

	t.Run("unknown code", func(t *testing.T) {
		f := newRedemptionFixture()
		f.couponRepo.On("FindByCode", mock.Anything, "NOPE").Return(nil, coupon.ErrCouponNotFound)

		_, err := f.svc.Preview(ctx, PreviewCommand{Code: "NOPE", PlanID: subscription.PlanPro})
		assert.Equal(t, coupon.CodeNotFound, shared.CodeOf(err))
	})
}

func TestRedemptionService_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("redeems and finalizes in one transaction", func(t *testing.T) {
		f := newRedemptionFixture()
		c := newTestCoupon(withTotal(5))
		cmd := applyCommand(subscription.PlanPro, "1000")

		f.couponRepo.On("FindByCode", mock.Anything, "save20").Return(c, nil)
		f.couponRepo.On("IncrementUsage", mock.Anything, c.ID).Return(true, nil)
		f.usageRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *coupon.CouponUsage) bool {
			return u.CouponID == c.ID && u.PurchaseID == cmd.PurchaseID &&
				u.DiscountAmount.Equal(decimal.NewFromInt(200)) && u.PerUserKey == u.ID.String()
		})).Return(nil)

		var finalized *AppliedCoupon
		applied, err := f.svc.Apply(ctx, cmd, func(ctx context.Context, a *AppliedCoupon) error {
			finalized = a
			return nil
		})
		require.NoError(t, err)
		assert.Same(t, applied, finalized)
		assert.Equal(t, "800", applied.FinalAmount.String())
		assert.Equal(t, 1, f.tx.calls)

		require.Len(t, f.publisher.events, 1)
		event := f.publisher.events[0].(*coupon.CouponRedeemedEvent)
		assert.Equal(t, cmd.PurchaseID, event.PurchaseID)
		assert.Equal(t, cmd.TenantID, event.TenantID())
		f.usageRepo.AssertExpectations(t)
	})

	t.Run("flat discount larger than the amount", func(t *testing.T) {
		f := newRedemptionFixture()
		c := newTestCoupon(withType(coupon.DiscountFlat, "500"))
		f.couponRepo.On("FindByCode", mock.Anything, "save20").Return(c, nil)
		f.couponRepo.On("IncrementUsage", mock.Anything, c.ID).Return(true, nil)
		f.usageRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		applied, err := f.svc.Apply(ctx, applyCommand(subscription.PlanBasic, "300"), nil)
		require.NoError(t, err)
		assert.Equal(t, "300", applied.DiscountAmount.String())
		assert.True(t, applied.FinalAmount.IsZero())
	})

	t.Run("per-user coupon keys the usage by user", func(t *testing.T) {
		f := newRedemptionFixture()
		c := newTestCoupon(withPerUser(), withType(coupon.DiscountFreePlan, "0"))
		cmd := applyCommand(subscription.PlanPro, "2999")
		f.couponRepo.On("FindByCode", mock.Anything, "save20").Return(c, nil)
		f.usageRepo.On("CountByCouponAndUser", mock.Anything, c.ID, cmd.UserID).Return(int64(0), nil)
		f.couponRepo.On("IncrementUsage", mock.Anything, c.ID).Return(true, nil)
		f.usageRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *coupon.CouponUsage) bool {
			return u.PerUserKey == cmd.UserID.String()
		})).Return(nil)

		applied, err := f.svc.Apply(ctx, cmd, nil)
		require.NoError(t, err)
		assert.True(t, applied.FinalAmount.IsZero())
	})

	t.Run("lost per-user race", func(t *testing.T) {
		f := newRedemptionFixture()
		c := newTestCoupon(withPerUser())
		cmd := applyCommand(subscription.PlanPro, "100")
		f.couponRepo.On("FindByCode", mock.Anything, "save20").Return(c, nil)
		f.usageRepo.On("CountByCouponAndUser", mock.Anything, c.ID, cmd.UserID).Return(int64(0), nil)
		f.couponRepo.On("IncrementUsage", mock.Anything, c.ID).Return(true, nil)
		f.usageRepo.On("Create", mock.Anything, mock.Anything).Return(coupon.ErrAlreadyUsed)

		_, err := f.svc.Apply(ctx, cmd, nil)
		assert.ErrorIs(t, err, coupon.ErrAlreadyUsed)
		assert.Empty(t, f.publisher.events)
	})

	t.Run("last slot taken after validation", func(t *testing.T) {
		f := newRedemptionFixture()
		c := newTestCoupon(withTotal(1))
		f.couponRepo.On("FindByCode", mock.Anything, "save20").Return(c, nil)
		f.couponRepo.On("IncrementUsage", mock.Anything, c.ID).Return(false, nil)
		f.couponRepo.On("FindByID", mock.Anything, c.ID).Return(newTestCoupon(withTotal(1)), nil)

		_, err := f.svc.Apply(ctx, applyCommand(subscription.PlanPro, "100"), nil)
		assert.ErrorIs(t, err, coupon.ErrLimitReached)
		f.usageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("deactivated after validation", func(t *testing.T) {
		f := newRedemptionFixture()
		c := newTestCoupon()
		current := newTestCoupon()
		current.IsActive = false
		f.couponRepo.On("FindByCode", mock.Anything, "save20").Return(c, nil)
		f.couponRepo.On("IncrementUsage", mock.Anything, c.ID).Return(false, nil)
		f.couponRepo.On("FindByID", mock.Anything, c.ID).Return(current, nil)

		_, err := f.svc.Apply(ctx, applyCommand(subscription.PlanPro, "100"), nil)
		assert.ErrorIs(t, err, coupon.ErrInactive)
	})

	t.Run("exhausted coupon never increments", func(t *testing.T) {
		f := newRedemptionFixture()
		c := newTestCoupon(withTotal(2))
		c.UsedCount = 2
		f.couponRepo.On("FindByCode", mock.Anything, "save20").Return(c, nil)

		_, err := f.svc.Apply(ctx, applyCommand(subscription.PlanPro, "100"), nil)
		assert.ErrorIs(t, err, coupon.ErrLimitReached)
		f.couponRepo.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything)
	})

	t.Run("expired coupon", func(t *testing.T) {
		f := newRedemptionFixture()
		c := newTestCoupon()
		past := time.Now().Add(-time.Hour)
		c.ExpiryDate = &past
		f.couponRepo.On("FindByCode", mock.Anything, "save20").Return(c, nil)

		_, err := f.svc.Apply(ctx, applyCommand(subscription.PlanPro, "100"), nil)
		assert.ErrorIs(t, err, coupon.ErrExpired)
	})

	t.Run("finalize failure rolls back", func(t *testing.T) {
		f := newRedemptionFixture()
		c := newTestCoupon()
		f.couponRepo.On("FindByCode", mock.Anything, "save20").Return(c, nil)
		f.couponRepo.On("IncrementUsage", mock.Anything, c.ID).Return(true, nil)
		f.usageRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		boom := errors.New("insert purchase: connection reset")
		_, err := f.svc.Apply(ctx, applyCommand(subscription.PlanPro, "100"), func(context.Context, *AppliedCoupon) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, f.publisher.events)
	})
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, "success", outcomeOf(nil))
	assert.Equal(t, coupon.CodeLimitReached, outcomeOf(coupon.ErrLimitReached))
	assert.Equal(t, "error", outcomeOf(errors.New("boom")))
}
