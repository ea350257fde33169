package coupon

import (
	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeCouponCreated     = "CouponCreated"
	EventTypeCouponActivated   = "CouponActivated"
	EventTypeCouponDeactivated = "CouponDeactivated"
	EventTypeCouponDeleted     = "CouponDeleted"
	EventTypeCouponRedeemed    = "CouponRedeemed"
)

// CouponCreatedEvent is published when an administrator creates a coupon
type CouponCreatedEvent struct {
	shared.BaseDomainEvent
	Code string       `json:"code"`
	Type DiscountType `json:"type"`
}

// NewCouponCreatedEvent creates a new CouponCreatedEvent
func NewCouponCreatedEvent(c *Coupon) *CouponCreatedEvent {
	return &CouponCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCouponCreated, AggregateTypeCoupon, c.ID, uuid.Nil),
		Code:            c.Code,
		Type:            c.Discount.Type,
	}
}

// CouponActivatedEvent is published when a coupon is switched on
type CouponActivatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
}

// NewCouponActivatedEvent creates a new CouponActivatedEvent
func NewCouponActivatedEvent(c *Coupon) *CouponActivatedEvent {
	return &CouponActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCouponActivated, AggregateTypeCoupon, c.ID, uuid.Nil),
		Code:            c.Code,
	}
}

// CouponDeactivatedEvent is published when a coupon is switched off
type CouponDeactivatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
}

// NewCouponDeactivatedEvent creates a new CouponDeactivatedEvent
func NewCouponDeactivatedEvent(c *Coupon) *CouponDeactivatedEvent {
	return &CouponDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCouponDeactivated, AggregateTypeCoupon, c.ID, uuid.Nil),
		Code:            c.Code,
	}
}

// CouponDeletedEvent is published after an unused coupon is deleted
type CouponDeletedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
}

// NewCouponDeletedEvent creates a new CouponDeletedEvent
func NewCouponDeletedEvent(c *Coupon) *CouponDeletedEvent {
	return &CouponDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCouponDeleted, AggregateTypeCoupon, c.ID, uuid.Nil),
		Code:            c.Code,
	}
}

// CouponRedeemedEvent is published after a redemption commits
type CouponRedeemedEvent struct {
	shared.BaseDomainEvent
	Code           string              `json:"code"`
	Type           DiscountType        `json:"type"`
	UserID         uuid.UUID           `json:"user_id"`
	PlanID         subscription.PlanID `json:"plan_id"`
	PurchaseID     uuid.UUID           `json:"purchase_id"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
}

// NewCouponRedeemedEvent creates a new CouponRedeemedEvent
func NewCouponRedeemedEvent(c *Coupon, u *CouponUsage) *CouponRedeemedEvent {
	return &CouponRedeemedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCouponRedeemed, AggregateTypeCoupon, c.ID, u.TenantID),
		Code:            c.Code,
		Type:            c.Discount.Type,
		UserID:          u.UserID,
		PlanID:          u.PlanID,
		PurchaseID:      u.PurchaseID,
		DiscountAmount:  u.DiscountAmount,
	}
}
