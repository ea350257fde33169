package coupon

import (
	"time"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/shopspring/decimal"
)

// Attempt describes one redemption attempt to validate
type Attempt struct {
	PlanID subscription.PlanID
	UserID uuid.UUID
	Amount decimal.Decimal
	// PriorUserRedemptions is the number of usage rows the user already has
	// for this coupon. Only consulted for per-user coupons.
	PriorUserRedemptions int64
	Now                  time.Time
}

// ValidatedDiscount is the outcome of a successful validation
type ValidatedDiscount struct {
	CouponID       uuid.UUID
	Code           string
	Type           DiscountType
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
}

// Validate decides whether c may be applied to the attempt and at what
// discount. Checks run in a fixed order and the first failure wins:
// existence, active flag, expiry, plan eligibility, global limit, per-user
// limit. It has no side effects.
func Validate(c *Coupon, a Attempt) (*ValidatedDiscount, error) {
	if c == nil {
		return nil, ErrCouponNotFound
	}
	if !c.IsActive {
		return nil, ErrInactive
	}

	now := a.Now
	if now.IsZero() {
		now = time.Now()
	}
	if c.IsExpired(now) {
		return nil, ErrExpired
	}

	if !c.AppliesTo(a.PlanID) {
		return nil, ErrPlanNotEligible
	}

	if c.HasGlobalLimit() && c.UsedCount >= *c.UsageLimit.Total {
		return nil, ErrLimitReached
	}

	if c.UsageLimit.PerUser && a.PriorUserRedemptions > 0 {
		return nil, ErrAlreadyUsed
	}

	if a.Amount.IsNegative() {
		return nil, validationError("Amount cannot be negative")
	}

	amount := a.Amount.Round(2)
	off := c.Discount.Amount(amount)
	return &ValidatedDiscount{
		CouponID:       c.ID,
		Code:           c.Code,
		Type:           c.Discount.Type,
		OriginalAmount: amount,
		DiscountAmount: off,
		FinalAmount:    amount.Sub(off),
	}, nil
}
