package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	couponapp "github.com/invsaas/backend/internal/application/coupon"
	subscriptionapp "github.com/invsaas/backend/internal/application/subscription"
	"github.com/invsaas/backend/internal/interfaces/http/dto"
	"github.com/invsaas/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockCouponAdminService is a testify mock of CouponAdminService
type MockCouponAdminService struct {
	mock.Mock
}

func (m *MockCouponAdminService) Create(ctx context.Context, req couponapp.CreateCouponRequest) (*couponapp.CouponResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponapp.CouponResponse), args.Error(1)
}

func (m *MockCouponAdminService) List(ctx context.Context, filter couponapp.CouponListFilter) ([]couponapp.CouponResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]couponapp.CouponResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockCouponAdminService) GetByID(ctx context.Context, id uuid.UUID) (*couponapp.CouponResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponapp.CouponResponse), args.Error(1)
}

func (m *MockCouponAdminService) ToggleActive(ctx context.Context, id uuid.UUID) (*couponapp.CouponResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponapp.CouponResponse), args.Error(1)
}

func (m *MockCouponAdminService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCouponAdminService) UsageHistory(ctx context.Context, id uuid.UUID) ([]couponapp.UsageHistoryResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]couponapp.UsageHistoryResponse), args.Error(1)
}

func (m *MockCouponAdminService) ExportUsage(ctx context.Context, id uuid.UUID) (*couponapp.UsageExportResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponapp.UsageExportResponse), args.Error(1)
}

// MockSubscriptionService is a testify mock of SubscriptionService
type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) ListPlans() []subscriptionapp.PlanResponse {
	return m.Called().Get(0).([]subscriptionapp.PlanResponse)
}

func (m *MockSubscriptionService) PreviewCoupon(ctx context.Context, userID uuid.UUID, req subscriptionapp.ValidateCouponRequest) (*couponapp.DiscountPreview, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponapp.DiscountPreview), args.Error(1)
}

func (m *MockSubscriptionService) Purchase(ctx context.Context, tenantID, userID uuid.UUID, req subscriptionapp.CreatePurchaseRequest) (*subscriptionapp.PurchaseResponse, error) {
	args := m.Called(ctx, tenantID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriptionapp.PurchaseResponse), args.Error(1)
}

func (m *MockSubscriptionService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*subscriptionapp.PurchaseResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriptionapp.PurchaseResponse), args.Error(1)
}

func (m *MockSubscriptionService) List(ctx context.Context, tenantID uuid.UUID, filter subscriptionapp.PurchaseListFilter) ([]subscriptionapp.PurchaseResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]subscriptionapp.PurchaseResponse), args.Get(1).(int64), args.Error(2)
}

// identity simulates the JWT middleware for an authenticated caller
func identity(tenantID, userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.RequestIDKey, "req-test")
		c.Set(middleware.JWTTenantIDKey, tenantID.String())
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Next()
	}
}

func doRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) dto.Response {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	resp := decodeResponse(t, rec)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code)
	return resp
}

