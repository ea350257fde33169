package subscription

import (
	"time"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/shopspring/decimal"
)

// PlanResponse represents a catalog plan in API responses
type PlanResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// ValidateCouponRequest asks for a discount preview of a plan purchase
type ValidateCouponRequest struct {
	Code   string `json:"code" binding:"required,max=20"`
	PlanID string `json:"plan_id" binding:"required"`
}

// CreatePurchaseRequest represents a request to buy a plan
type CreatePurchaseRequest struct {
	PlanID     string `json:"plan_id" binding:"required"`
	CouponCode string `json:"coupon_code" binding:"omitempty,max=20"`
}

// PurchaseListFilter represents query parameters of the purchase list
type PurchaseListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// PurchaseResponse represents a purchase in API responses
type PurchaseResponse struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	UserID         uuid.UUID       `json:"user_id"`
	PlanID         string          `json:"plan_id"`
	ListAmount     decimal.Decimal `json:"list_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Currency       string          `json:"currency"`
	CouponID       *uuid.UUID      `json:"coupon_id,omitempty"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	Status         string          `json:"status"`
	PurchasedAt    *time.Time      `json:"purchased_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToPlanResponses converts catalog plans
func ToPlanResponses(plans []subscription.Plan) []PlanResponse {
	out := make([]PlanResponse, len(plans))
	for i, p := range plans {
		out[i] = PlanResponse{ID: p.ID.String(), Name: p.Name, Price: p.Price, Currency: p.Currency}
	}
	return out
}

// ToPurchaseResponse converts a domain Purchase to PurchaseResponse
func ToPurchaseResponse(p *subscription.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:             p.ID,
		TenantID:       p.TenantID,
		UserID:         p.UserID,
		PlanID:         p.PlanID.String(),
		ListAmount:     p.ListAmount,
		DiscountAmount: p.DiscountAmount,
		FinalAmount:    p.FinalAmount,
		Currency:       p.Currency,
		CouponID:       p.CouponID,
		CouponCode:     p.CouponCode,
		Status:         string(p.Status),
		PurchasedAt:    p.PurchasedAt,
		CreatedAt:      p.CreatedAt,
	}
}

// ToPurchaseResponses converts a slice of purchases
func ToPurchaseResponses(purchases []subscription.Purchase) []PurchaseResponse {
	out := make([]PurchaseResponse, len(purchases))
	for i := range purchases {
		out[i] = ToPurchaseResponse(&purchases[i])
	}
	return out
}
