package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	couponapp "github.com/invsaas/backend/internal/application/coupon"
	subscriptionapp "github.com/invsaas/backend/internal/application/subscription"
)

// SubscriptionService is the tenant facing purchase surface
type SubscriptionService interface {
	ListPlans() []subscriptionapp.PlanResponse
	PreviewCoupon(ctx context.Context, userID uuid.UUID, req subscriptionapp.ValidateCouponRequest) (*couponapp.DiscountPreview, error)
	Purchase(ctx context.Context, tenantID, userID uuid.UUID, req subscriptionapp.CreatePurchaseRequest) (*subscriptionapp.PurchaseResponse, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*subscriptionapp.PurchaseResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter subscriptionapp.PurchaseListFilter) ([]subscriptionapp.PurchaseResponse, int64, error)
}

// SubscriptionHandler handles plan listing, coupon checks and purchases
type SubscriptionHandler struct {
	BaseHandler
	service SubscriptionService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(service SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// ListPlans handles GET /subscriptions/plans
func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	h.Success(c, h.service.ListPlans())
}

// ValidateCoupon handles POST /subscriptions/coupons/validate
func (h *SubscriptionHandler) ValidateCoupon(c *gin.Context) {
	_, userID, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var req subscriptionapp.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	preview, err := h.service.PreviewCoupon(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, preview)
}

// CreatePurchase handles POST /subscriptions/purchases
func (h *SubscriptionHandler) CreatePurchase(c *gin.Context) {
	tenantID, userID, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var req subscriptionapp.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	purchase, err := h.service.Purchase(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, purchase)
}

// ListPurchases handles GET /subscriptions/purchases
func (h *SubscriptionHandler) ListPurchases(c *gin.Context) {
	tenantID, _, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var filter subscriptionapp.PurchaseListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	purchases, total, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, purchases, total, filter.Page, filter.PageSize)
}

// GetPurchase handles GET /subscriptions/purchases/:id
func (h *SubscriptionHandler) GetPurchase(c *gin.Context) {
	tenantID, _, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	purchase, err := h.service.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, purchase)
}
