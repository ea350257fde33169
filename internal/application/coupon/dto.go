package coupon

import (
	"time"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/coupon"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Admin DTOs
// =============================================================================

// UsageLimitRequest is the usage cap part of a create request
type UsageLimitRequest struct {
	Total   *int `json:"total" binding:"omitempty,min=1"`
	PerUser bool `json:"per_user"`
}

// CreateCouponRequest represents a request to create a new coupon
type CreateCouponRequest struct {
	Code            string            `json:"code" binding:"required,min=4,max=20,alphanum"`
	Type            string            `json:"type" binding:"required,oneof=percentage flat free_plan"`
	Value           decimal.Decimal   `json:"value"`
	ApplicablePlans []string          `json:"applicable_plans" binding:"required,min=1"`
	ExpiryDate      *time.Time        `json:"expiry_date"`
	UsageLimit      UsageLimitRequest `json:"usage_limit"`
	Description     string            `json:"description" binding:"max=500"`
}

// ToSpec converts the request into the domain's coupon spec
func (r CreateCouponRequest) ToSpec() coupon.Spec {
	return coupon.Spec{
		Code:            r.Code,
		Type:            coupon.DiscountType(r.Type),
		Value:           r.Value,
		ApplicablePlans: r.ApplicablePlans,
		ExpiryDate:      r.ExpiryDate,
		UsageLimitTotal: r.UsageLimit.Total,
		PerUser:         r.UsageLimit.PerUser,
		Description:     r.Description,
	}
}

// CouponListFilter represents query parameters of the coupon list
type CouponListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
	Search   string `form:"search" binding:"max=50"`
	Active   *bool  `form:"active"`
}

// UsageLimitResponse is the usage cap of a coupon in API responses
type UsageLimitResponse struct {
	Total   *int `json:"total"`
	PerUser bool `json:"per_user"`
}

// CouponResponse represents a coupon in API responses
type CouponResponse struct {
	ID              uuid.UUID          `json:"id"`
	Code            string             `json:"code"`
	Type            string             `json:"type"`
	Value           decimal.Decimal    `json:"value"`
	ApplicablePlans []string           `json:"applicable_plans"`
	ExpiryDate      *time.Time         `json:"expiry_date"`
	UsageLimit      UsageLimitResponse `json:"usage_limit"`
	IsActive        bool               `json:"is_active"`
	IsExpired       bool               `json:"is_expired"`
	UsedCount       int                `json:"used_count"`
	// RemainingUses is nil when the coupon has no global cap
	RemainingUses *int      `json:"remaining_uses"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToCouponResponse converts a domain Coupon to CouponResponse
func ToCouponResponse(c *coupon.Coupon) CouponResponse {
	plans := make([]string, len(c.ApplicablePlans))
	for i, p := range c.ApplicablePlans {
		plans[i] = p.String()
	}

	var remaining *int
	if c.HasGlobalLimit() {
		r := c.RemainingUses()
		remaining = &r
	}

	return CouponResponse{
		ID:              c.ID,
		Code:            c.Code,
		Type:            c.Discount.Type.String(),
		Value:           c.Discount.Value,
		ApplicablePlans: plans,
		ExpiryDate:      c.ExpiryDate,
		UsageLimit: UsageLimitResponse{
			Total:   c.UsageLimit.Total,
			PerUser: c.UsageLimit.PerUser,
		},
		IsActive:      c.IsActive,
		IsExpired:     c.IsExpired(time.Now()),
		UsedCount:     c.UsedCount,
		RemainingUses: remaining,
		Description:   c.Description,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// ToCouponResponses converts a slice of coupons
func ToCouponResponses(coupons []coupon.Coupon) []CouponResponse {
	out := make([]CouponResponse, len(coupons))
	for i := range coupons {
		out[i] = ToCouponResponse(&coupons[i])
	}
	return out
}

// UsageHistoryResponse is one redemption in a coupon's usage history
type UsageHistoryResponse struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	Username        string          `json:"username"`
	UserDisplayName string          `json:"user_display_name"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	CompanyName     string          `json:"company_name"`
	PlanID          string          `json:"plan_id"`
	PurchaseID      uuid.UUID       `json:"purchase_id"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	AppliedAt       time.Time       `json:"applied_at"`
}

// ToUsageHistoryResponses converts history entries, keeping their order
func ToUsageHistoryResponses(entries []coupon.UsageHistoryEntry) []UsageHistoryResponse {
	out := make([]UsageHistoryResponse, len(entries))
	for i, e := range entries {
		out[i] = UsageHistoryResponse{
			ID:              e.ID,
			UserID:          e.UserID,
			Username:        e.Username,
			UserDisplayName: e.UserDisplayName,
			TenantID:        e.TenantID,
			CompanyName:     e.CompanyName,
			PlanID:          e.PlanID.String(),
			PurchaseID:      e.PurchaseID,
			OriginalAmount:  e.OriginalAmount,
			DiscountAmount:  e.DiscountAmount,
			FinalAmount:     e.FinalAmount,
			AppliedAt:       e.AppliedAt,
		}
	}
	return out
}

// UsageExportResponse describes a stored usage export
type UsageExportResponse struct {
	CouponID    uuid.UUID `json:"coupon_id"`
	Code        string    `json:"code"`
	StorageKey  string    `json:"storage_key"`
	Rows        int       `json:"rows"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// =============================================================================
// Redemption DTOs
// =============================================================================

// PreviewCommand asks what a coupon would do to a purchase, without redeeming
type PreviewCommand struct {
	Code   string
	PlanID subscription.PlanID
	UserID uuid.UUID
	Amount decimal.Decimal
}

// ApplyCommand redeems a coupon against a purchase
type ApplyCommand struct {
	Code       string
	PlanID     subscription.PlanID
	UserID     uuid.UUID
	TenantID   uuid.UUID
	PurchaseID uuid.UUID
	Amount     decimal.Decimal
}

// DiscountPreview is the validator's verdict on a candidate purchase
type DiscountPreview struct {
	Code           string          `json:"code"`
	Type           string          `json:"type"`
	PlanID         string          `json:"plan_id"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

// AppliedCoupon is the outcome of a committed redemption
type AppliedCoupon struct {
	CouponID       uuid.UUID       `json:"coupon_id"`
	UsageID        uuid.UUID       `json:"usage_id"`
	Code           string          `json:"code"`
	Type           string          `json:"type"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	AppliedAt      time.Time       `json:"applied_at"`
}

func toDiscountPreview(d *coupon.ValidatedDiscount, plan subscription.PlanID) *DiscountPreview {
	return &DiscountPreview{
		Code:           d.Code,
		Type:           d.Type.String(),
		PlanID:         plan.String(),
		OriginalAmount: d.OriginalAmount,
		DiscountAmount: d.DiscountAmount,
		FinalAmount:    d.FinalAmount,
	}
}

func toAppliedCoupon(d *coupon.ValidatedDiscount, u *coupon.CouponUsage) *AppliedCoupon {
	return &AppliedCoupon{
		CouponID:       d.CouponID,
		UsageID:        u.ID,
		Code:           d.Code,
		Type:           d.Type.String(),
		OriginalAmount: d.OriginalAmount,
		DiscountAmount: d.DiscountAmount,
		FinalAmount:    d.FinalAmount,
		AppliedAt:      u.AppliedAt,
	}
}
