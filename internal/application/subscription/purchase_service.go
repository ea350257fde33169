package subscription

import (
	"context"
	"strings"

	"github.com/google/uuid"
	couponapp "github.com/invsaas/backend/internal/application/coupon"
	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/invsaas/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CouponRedeemer previews and redeems coupons for purchases
type CouponRedeemer interface {
	Preview(ctx context.Context, cmd couponapp.PreviewCommand) (*couponapp.DiscountPreview, error)
	Apply(ctx context.Context, cmd couponapp.ApplyCommand, finalize couponapp.FinalizeFunc) (*couponapp.AppliedCoupon, error)
}

// PurchaseService handles plan purchases by tenants
type PurchaseService struct {
	catalog      *subscription.Catalog
	purchaseRepo subscription.PurchaseRepository
	redeemer     CouponRedeemer
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(
	catalog *subscription.Catalog,
	purchaseRepo subscription.PurchaseRepository,
	redeemer CouponRedeemer,
) *PurchaseService {
	return &PurchaseService{
		catalog:      catalog,
		purchaseRepo: purchaseRepo,
		redeemer:     redeemer,
	}
}

// ListPlans returns the plan catalog
func (s *PurchaseService) ListPlans() []PlanResponse {
	return ToPlanResponses(s.catalog.List())
}

func (s *PurchaseService) plan(id string) (subscription.Plan, error) {
	return s.catalog.Get(subscription.PlanID(strings.ToLower(strings.TrimSpace(id))))
}

// PreviewCoupon reports what a coupon would take off the plan's list price
func (s *PurchaseService) PreviewCoupon(ctx context.Context, userID uuid.UUID, req ValidateCouponRequest) (*couponapp.DiscountPreview, error) {
	plan, err := s.plan(req.PlanID)
	if err != nil {
		return nil, err
	}

	return s.redeemer.Preview(ctx, couponapp.PreviewCommand{
		Code:   req.Code,
		PlanID: plan.ID,
		UserID: userID,
		Amount: plan.Price,
	})
}

// Purchase buys a plan for the tenant. With a coupon code the purchase is
// recorded inside the coupon redemption, so a rejected coupon leaves no
// purchase behind.
func (s *PurchaseService) Purchase(ctx context.Context, tenantID, userID uuid.UUID, req CreatePurchaseRequest) (*PurchaseResponse, error) {
	plan, err := s.plan(req.PlanID)
	if err != nil {
		return nil, err
	}

	purchase, err := subscription.NewPurchase(tenantID, userID, plan)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.CouponCode) == "" {
		if err := purchase.MarkPaid(); err != nil {
			return nil, err
		}
		if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
			return nil, err
		}
	} else {
		_, err := s.redeemer.Apply(ctx, couponapp.ApplyCommand{
			Code:       req.CouponCode,
			PlanID:     plan.ID,
			UserID:     userID,
			TenantID:   tenantID,
			PurchaseID: purchase.ID,
			Amount:     plan.Price,
		}, func(ctx context.Context, applied *couponapp.AppliedCoupon) error {
			if err := purchase.ApplyCoupon(applied.CouponID, applied.Code, applied.DiscountAmount, applied.FinalAmount); err != nil {
				return err
			}
			if err := purchase.MarkPaid(); err != nil {
				return err
			}
			return s.purchaseRepo.Create(ctx, purchase)
		})
		if err != nil {
			return nil, err
		}
	}

	logger.L(ctx).Info("subscription purchased",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("plan_id", plan.ID.String()),
		zap.String("coupon_code", purchase.CouponCode),
		zap.String("final_amount", purchase.FinalAmount.StringFixed(2)),
	)

	response := ToPurchaseResponse(purchase)
	return &response, nil
}

// GetByID retrieves a purchase of the tenant
func (s *PurchaseService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseResponse, error) {
	p, err := s.purchaseRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseResponse(p)
	return &response, nil
}

// List retrieves the tenant's purchases, newest first by default
func (s *PurchaseService) List(ctx context.Context, tenantID uuid.UUID, filter PurchaseListFilter) ([]PurchaseResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	purchases, total, err := s.purchaseRepo.FindAllForTenant(ctx, tenantID, shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	})
	if err != nil {
		return nil, 0, err
	}
	return ToPurchaseResponses(purchases), total, nil
}
