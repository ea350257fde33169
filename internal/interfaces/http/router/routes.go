package router

import (
	"github.com/gin-gonic/gin"
	"github.com/invsaas/backend/internal/infrastructure/auth"
	"github.com/invsaas/backend/internal/interfaces/http/handler"
	"github.com/invsaas/backend/internal/interfaces/http/middleware"
)

// CouponAdminRoutes builds /admin/coupons. Every route needs coupon:manage.
func CouponAdminRoutes(h *handler.CouponAdminHandler, authn gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("coupon-admin", "/admin/coupons").
		Use(authn, middleware.RequirePermission(auth.PermissionCouponManage))

	g.POST("", h.Create).
		GET("", h.List).
		GET("/:id", h.Get).
		PATCH("/:id/toggle", h.Toggle).
		DELETE("/:id", h.Delete).
		GET("/:id/usage", h.Usage).
		POST("/:id/usage/export", h.ExportUsage)

	return g
}

// SubscriptionRoutes builds /subscriptions. The plan catalog is public.
func SubscriptionRoutes(h *handler.SubscriptionHandler, authn gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("subscriptions", "/subscriptions")
	g.GET("/plans", h.ListPlans)

	g.Group("subscriptions-coupons", "/coupons").
		Use(authn).
		POST("/validate", h.ValidateCoupon)

	g.Group("subscriptions-purchases", "/purchases").
		Use(authn).
		POST("", h.CreatePurchase).
		GET("", h.ListPurchases).
		GET("/:id", h.GetPurchase)

	return g
}
