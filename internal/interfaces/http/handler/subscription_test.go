package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	couponapp "github.com/invsaas/backend/internal/application/coupon"
	subscriptionapp "github.com/invsaas/backend/internal/application/subscription"
	"github.com/invsaas/backend/internal/domain/coupon"
	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/invsaas/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func subscriptionRouter(svc SubscriptionService, auth gin.HandlerFunc) *gin.Engine {
	h := NewSubscriptionHandler(svc)
	router := gin.New()
	router.GET("/subscriptions/plans", h.ListPlans)
	g := router.Group("/subscriptions", auth)
	g.POST("/coupons/validate", h.ValidateCoupon)
	g.POST("/purchases", h.CreatePurchase)
	g.GET("/purchases", h.ListPurchases)
	g.GET("/purchases/:id", h.GetPurchase)
	return router
}

func TestSubscriptionHandler_ListPlans(t *testing.T) {
	svc := new(MockSubscriptionService)
	svc.On("ListPlans").Return([]subscriptionapp.PlanResponse{
		{ID: "free", Name: "Free", Price: decimal.Zero, Currency: "INR"},
		{ID: "pro", Name: "Pro", Price: decimal.NewFromInt(2999), Currency: "INR"},
	})

	rec := doRequest(subscriptionRouter(svc, identity(uuid.New(), uuid.New())), http.MethodGet, "/subscriptions/plans", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	plans := decodeResponse(t, rec).Data.([]any)
	require.Len(t, plans, 2)
	assert.Equal(t, "2999", plans[1].(map[string]any)["price"])
}

func TestSubscriptionHandler_ValidateCoupon(t *testing.T) {
	tenantID, userID := uuid.New(), uuid.New()
	req := subscriptionapp.ValidateCouponRequest{Code: "SAVE20", PlanID: "pro"}

	t.Run("preview", func(t *testing.T) {
		svc := new(MockSubscriptionService)
		svc.On("PreviewCoupon", mock.Anything, userID, req).Return(&couponapp.DiscountPreview{
			Code:           "SAVE20",
			PlanID:         "pro",
			OriginalAmount: decimal.NewFromInt(1000),
			DiscountAmount: decimal.NewFromInt(200),
			FinalAmount:    decimal.NewFromInt(800),
		}, nil)

		rec := doRequest(subscriptionRouter(svc, identity(tenantID, userID)), http.MethodPost, "/subscriptions/coupons/validate", req)

		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeResponse(t, rec).Data.(map[string]any)
		assert.Equal(t, "800", data["final_amount"])
		svc.AssertExpectations(t)
	})

	rejections := []struct {
		err  error
		code string
	}{
		{coupon.ErrInactive, dto.ErrCodeCouponInactive},
		{coupon.ErrExpired, dto.ErrCodeCouponExpired},
		{coupon.ErrPlanNotEligible, dto.ErrCodeCouponPlanNotEligible},
		{coupon.ErrLimitReached, dto.ErrCodeCouponLimitReached},
		{coupon.ErrAlreadyUsed, dto.ErrCodeCouponAlreadyUsed},
	}
	for _, r := range rejections {
		t.Run(r.code, func(t *testing.T) {
			svc := new(MockSubscriptionService)
			svc.On("PreviewCoupon", mock.Anything, userID, req).Return(nil, r.err)

			rec := doRequest(subscriptionRouter(svc, identity(tenantID, userID)), http.MethodPost, "/subscriptions/coupons/validate", req)

			requireErrorCode(t, rec, http.StatusUnprocessableEntity, r.code)
		})
	}

	t.Run("unknown coupon", func(t *testing.T) {
		svc := new(MockSubscriptionService)
		svc.On("PreviewCoupon", mock.Anything, userID, req).Return(nil, coupon.ErrCouponNotFound)

		rec := doRequest(subscriptionRouter(svc, identity(tenantID, userID)), http.MethodPost, "/subscriptions/coupons/validate", req)

		requireErrorCode(t, rec, http.StatusNotFound, dto.ErrCodeNotFound)
	})

	t.Run("missing code", func(t *testing.T) {
		svc := new(MockSubscriptionService)
		rec := doRequest(subscriptionRouter(svc, identity(tenantID, userID)), http.MethodPost, "/subscriptions/coupons/validate",
			map[string]string{"plan_id": "pro"})

		resp := requireErrorCode(t, rec, http.StatusBadRequest, dto.ErrCodeValidation)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "code", resp.Error.Details[0].Field)
	})

	t.Run("no identity", func(t *testing.T) {
		svc := new(MockSubscriptionService)
		noAuth := func(c *gin.Context) { c.Next() }
		rec := doRequest(subscriptionRouter(svc, noAuth), http.MethodPost, "/subscriptions/coupons/validate", req)

		requireErrorCode(t, rec, http.StatusUnauthorized, dto.ErrCodeUnauthorized)
	})
}

func TestSubscriptionHandler_CreatePurchase(t *testing.T) {
	tenantID, userID := uuid.New(), uuid.New()
	req := subscriptionapp.CreatePurchaseRequest{PlanID: "pro", CouponCode: "SAVE20"}

	t.Run("created", func(t *testing.T) {
		svc := new(MockSubscriptionService)
		svc.On("Purchase", mock.Anything, tenantID, userID, req).Return(&subscriptionapp.PurchaseResponse{
			ID:          uuid.New(),
			TenantID:    tenantID,
			PlanID:      "pro",
			FinalAmount: decimal.NewFromInt(800),
			CouponCode:  "SAVE20",
			Status:      "paid",
		}, nil)

		rec := doRequest(subscriptionRouter(svc, identity(tenantID, userID)), http.MethodPost, "/subscriptions/purchases", req)

		require.Equal(t, http.StatusCreated, rec.Code)
		data := decodeResponse(t, rec).Data.(map[string]any)
		assert.Equal(t, "paid", data["status"])
		svc.AssertExpectations(t)
	})

	t.Run("limit reached", func(t *testing.T) {
		svc := new(MockSubscriptionService)
		svc.On("Purchase", mock.Anything, tenantID, userID, req).Return(nil, coupon.ErrLimitReached)

		rec := doRequest(subscriptionRouter(svc, identity(tenantID, userID)), http.MethodPost, "/subscriptions/purchases", req)

		resp := requireErrorCode(t, rec, http.StatusUnprocessableEntity, dto.ErrCodeCouponLimitReached)
		assert.Equal(t, "req-test", resp.Error.RequestID)
	})

	t.Run("unknown plan", func(t *testing.T) {
		svc := new(MockSubscriptionService)
		svc.On("Purchase", mock.Anything, tenantID, userID, mock.Anything).Return(nil, subscription.ErrPlanNotFound)

		rec := doRequest(subscriptionRouter(svc, identity(tenantID, userID)), http.MethodPost, "/subscriptions/purchases",
			map[string]string{"plan_id": "platinum"})

		requireErrorCode(t, rec, http.StatusNotFound, dto.ErrCodeNotFound)
	})
}

func TestSubscriptionHandler_ListPurchases(t *testing.T) {
	tenantID, userID := uuid.New(), uuid.New()
	svc := new(MockSubscriptionService)
	svc.On("List", mock.Anything, tenantID, subscriptionapp.PurchaseListFilter{Page: 1, PageSize: 20}).
		Return([]subscriptionapp.PurchaseResponse{{ID: uuid.New(), TenantID: tenantID}}, int64(1), nil)

	rec := doRequest(subscriptionRouter(svc, identity(tenantID, userID)), http.MethodGet, "/subscriptions/purchases", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, int64(1), resp.Meta.Total)
	svc.AssertExpectations(t)
}

func TestSubscriptionHandler_GetPurchase(t *testing.T) {
	tenantID, userID, id := uuid.New(), uuid.New(), uuid.New()

	t.Run("found", func(t *testing.T) {
		svc := new(MockSubscriptionService)
		svc.On("GetByID", mock.Anything, tenantID, id).Return(&subscriptionapp.PurchaseResponse{ID: id}, nil)

		rec := doRequest(subscriptionRouter(svc, identity(tenantID, userID)), http.MethodGet, "/subscriptions/purchases/"+id.String(), nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other tenant", func(t *testing.T) {
		svc := new(MockSubscriptionService)
		svc.On("GetByID", mock.Anything, tenantID, id).Return(nil, shared.ErrNotFound)

		rec := doRequest(subscriptionRouter(svc, identity(tenantID, userID)), http.MethodGet, "/subscriptions/purchases/"+id.String(), nil)

		requireErrorCode(t, rec, http.StatusNotFound, dto.ErrCodeNotFound)
	})
}
