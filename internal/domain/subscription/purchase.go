package subscription

import (
	"time"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PurchaseStatus is the lifecycle state of a purchase
type PurchaseStatus string

const (
	PurchaseStatusPending PurchaseStatus = "PENDING"
	PurchaseStatusPaid    PurchaseStatus = "PAID"
)

// Purchase records a tenant buying a plan, with the coupon outcome if any.
type Purchase struct {
	shared.TenantAggregateRoot
	UserID         uuid.UUID
	PlanID         PlanID
	ListAmount     decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	Currency       string
	CouponID       *uuid.UUID
	CouponCode     string
	Status         PurchaseStatus
	PurchasedAt    *time.Time
}

// NewPurchase starts a pending purchase of plan at its list price
func NewPurchase(tenantID, userID uuid.UUID, plan Plan) (*Purchase, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !plan.ID.IsValid() {
		return nil, ErrPlanNotFound
	}

	return &Purchase{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
		PlanID:              plan.ID,
		ListAmount:          plan.Price,
		DiscountAmount:      decimal.Zero,
		FinalAmount:         plan.Price,
		Currency:            plan.Currency,
		Status:              PurchaseStatusPending,
	}, nil
}

// ApplyCoupon records a coupon discount on a pending purchase.
// The amounts must add up to the list price.
func (p *Purchase) ApplyCoupon(couponID uuid.UUID, code string, discount, final decimal.Decimal) error {
	if p.Status != PurchaseStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Coupon can only be applied to a pending purchase")
	}
	if discount.IsNegative() || final.IsNegative() || !discount.Add(final).Equal(p.ListAmount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Discount and final amount must add up to the list price")
	}
	p.CouponID = &couponID
	p.CouponCode = code
	p.DiscountAmount = discount
	p.FinalAmount = final
	p.Touch(time.Now())
	return nil
}

// MarkPaid finalizes the purchase
func (p *Purchase) MarkPaid() error {
	if p.Status != PurchaseStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Purchase is already finalized")
	}
	now := time.Now()
	p.Status = PurchaseStatusPaid
	p.PurchasedAt = &now
	p.Touch(now)
	return nil
}

// HasCoupon returns true if a coupon was applied to the purchase
func (p *Purchase) HasCoupon() bool {
	return p.CouponID != nil
}
