package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the coupon metrics
const MeterName = "github.com/invsaas/backend/coupon"

// ErrMeterNil is returned when metrics are built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Metric attribute keys
var (
	AttrOutcome      = attribute.Key("outcome")
	AttrPlan         = attribute.Key("plan")
	AttrDiscountType = attribute.Key("discount_type")
)

// Outcome values besides the rejection error codes
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// CouponMetrics counts validations and redemptions by outcome and sums the
// discount given away
type CouponMetrics struct {
	validations metric.Int64Counter
	redemptions metric.Int64Counter
	discounts   metric.Float64Counter
}

// NewCouponMetrics creates the coupon instruments on meter
func NewCouponMetrics(meter metric.Meter) (*CouponMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	validations, err := meter.Int64Counter("invsaas_coupon_validations_total",
		metric.WithDescription("Coupon validation previews by outcome"),
		metric.WithUnit("{validations}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create validations counter: %w", err)
	}

	redemptions, err := meter.Int64Counter("invsaas_coupon_redemptions_total",
		metric.WithDescription("Coupon redemption attempts by outcome"),
		metric.WithUnit("{redemptions}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create redemptions counter: %w", err)
	}

	discounts, err := meter.Float64Counter("invsaas_coupon_discount_amount_total",
		metric.WithDescription("Sum of discounts granted by redeemed coupons"),
		metric.WithUnit("{currency}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create discount counter: %w", err)
	}

	return &CouponMetrics{validations: validations, redemptions: redemptions, discounts: discounts}, nil
}

// RecordValidation counts a preview with its outcome
func (m *CouponMetrics) RecordValidation(ctx context.Context, plan subscription.PlanID, outcome string) {
	m.validations.Add(ctx, 1, metric.WithAttributes(AttrPlan.String(string(plan)), AttrOutcome.String(outcome)))
}

// RecordRedemptionFailure counts a rejected or failed redemption
func (m *CouponMetrics) RecordRedemptionFailure(ctx context.Context, plan subscription.PlanID, outcome string) {
	m.redemptions.Add(ctx, 1, metric.WithAttributes(AttrPlan.String(string(plan)), AttrOutcome.String(outcome)))
}

// RecordRedemption counts a committed redemption and adds its discount
func (m *CouponMetrics) RecordRedemption(ctx context.Context, plan subscription.PlanID, discountType string, discount decimal.Decimal) {
	m.redemptions.Add(ctx, 1, metric.WithAttributes(AttrPlan.String(string(plan)), AttrOutcome.String(OutcomeSuccess)))
	m.discounts.Add(ctx, discount.InexactFloat64(), metric.WithAttributes(
		AttrPlan.String(string(plan)),
		AttrDiscountType.String(discountType),
	))
}
