package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	couponapp "github.com/invsaas/backend/internal/application/coupon"
)

// CouponAdminService is the admin console surface of the coupon service
type CouponAdminService interface {
	Create(ctx context.Context, req couponapp.CreateCouponRequest) (*couponapp.CouponResponse, error)
	List(ctx context.Context, filter couponapp.CouponListFilter) ([]couponapp.CouponResponse, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*couponapp.CouponResponse, error)
	ToggleActive(ctx context.Context, id uuid.UUID) (*couponapp.CouponResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UsageHistory(ctx context.Context, id uuid.UUID) ([]couponapp.UsageHistoryResponse, error)
	ExportUsage(ctx context.Context, id uuid.UUID) (*couponapp.UsageExportResponse, error)
}

// CouponAdminHandler handles the admin coupon console
type CouponAdminHandler struct {
	BaseHandler
	service CouponAdminService
}

// NewCouponAdminHandler creates a new coupon admin handler
func NewCouponAdminHandler(service CouponAdminService) *CouponAdminHandler {
	return &CouponAdminHandler{service: service}
}

// Create handles POST /admin/coupons
func (h *CouponAdminHandler) Create(c *gin.Context) {
	var req couponapp.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	coupon, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, coupon)
}

// List handles GET /admin/coupons
func (h *CouponAdminHandler) List(c *gin.Context) {
	var filter couponapp.CouponListFilter
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

	coupons, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, coupons, total, filter.Page, filter.PageSize)
}

// Get handles GET /admin/coupons/:id
func (h *CouponAdminHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	coupon, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, coupon)
}

// Toggle handles PATCH /admin/coupons/:id/toggle
func (h *CouponAdminHandler) Toggle(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	coupon, err := h.service.ToggleActive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, coupon)
}

// Delete handles DELETE /admin/coupons/:id
func (h *CouponAdminHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Usage handles GET /admin/coupons/:id/usage
func (h *CouponAdminHandler) Usage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	history, err := h.service.UsageHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, history)
}

// ExportUsage handles POST /admin/coupons/:id/usage/export
func (h *CouponAdminHandler) ExportUsage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	export, err := h.service.ExportUsage(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, export)
}
