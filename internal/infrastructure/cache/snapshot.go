package cache

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/coupon"
	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/shopspring/decimal"
)

// couponSnapshot is the cached wire form of a coupon
type couponSnapshot struct {
	ID              uuid.UUID             `json:"id"`
	Code            string                `json:"code"`
	Type            coupon.DiscountType   `json:"type"`
	Value           decimal.Decimal       `json:"value"`
	ApplicablePlans []subscription.PlanID `json:"applicable_plans"`
	ExpiryDate      *time.Time            `json:"expiry_date,omitempty"`
	UsageLimitTotal *int                  `json:"usage_limit_total,omitempty"`
	PerUser         bool                  `json:"per_user"`
	IsActive        bool                  `json:"is_active"`
	UsedCount       int                   `json:"used_count"`
	Description     string                `json:"description,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func encodeCoupon(c *coupon.Coupon) ([]byte, error) {
	return json.Marshal(couponSnapshot{
		ID:              c.ID,
		Code:            c.Code,
		Type:            c.Discount.Type,
		Value:           c.Discount.Value,
		ApplicablePlans: c.ApplicablePlans,
		ExpiryDate:      c.ExpiryDate,
		UsageLimitTotal: c.UsageLimit.Total,
		PerUser:         c.UsageLimit.PerUser,
		IsActive:        c.IsActive,
		UsedCount:       c.UsedCount,
		Description:     c.Description,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	})
}

func decodeCoupon(data []byte) (*coupon.Coupon, error) {
	var s couponSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &coupon.Coupon{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        s.ID,
				CreatedAt: s.CreatedAt,
				UpdatedAt: s.UpdatedAt,
			},
		},
		Code:            s.Code,
		Discount:        coupon.Discount{Type: s.Type, Value: s.Value},
		ApplicablePlans: s.ApplicablePlans,
		ExpiryDate:      s.ExpiryDate,
		UsageLimit:      coupon.UsageLimit{Total: s.UsageLimitTotal, PerUser: s.PerUser},
		IsActive:        s.IsActive,
		UsedCount:       s.UsedCount,
		Description:     s.Description,
	}, nil
}
