package coupon

import (
	"time"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/shopspring/decimal"
)

// CouponUsage is the immutable record of one successful redemption
type CouponUsage struct {
	ID             uuid.UUID
	CouponID       uuid.UUID
	UserID         uuid.UUID
	TenantID       uuid.UUID
	PlanID         subscription.PlanID
	PurchaseID     uuid.UUID
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	AppliedAt      time.Time
	// PerUserKey backs the unique (coupon_id, per_user_key) index. It is the
	// user id for per-user coupons, so a second row for the same user is
	// rejected by the database, and the row id otherwise.
	PerUserKey string
}

// NewCouponUsage builds the usage row for a validated redemption
func NewCouponUsage(c *Coupon, d *ValidatedDiscount, purchaseID, tenantID, userID uuid.UUID, plan subscription.PlanID) *CouponUsage {
	id := uuid.New()
	key := id.String()
	if c.UsageLimit.PerUser {
		key = userID.String()
	}
	return &CouponUsage{
		ID:             id,
		CouponID:       c.ID,
		UserID:         userID,
		TenantID:       tenantID,
		PlanID:         plan,
		PurchaseID:     purchaseID,
		OriginalAmount: d.OriginalAmount,
		DiscountAmount: d.DiscountAmount,
		FinalAmount:    d.FinalAmount,
		AppliedAt:      time.Now(),
		PerUserKey:     key,
	}
}

// UsageHistoryEntry is a usage row joined with the display names of the
// redeeming user and company
type UsageHistoryEntry struct {
	CouponUsage
	Username        string
	UserDisplayName string
	CompanyName     string
}
