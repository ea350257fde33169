package coupon

import (
	"github.com/shopspring/decimal"
)

// DiscountType is the tag of the discount variant
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
	DiscountFreePlan   DiscountType = "free_plan"
)

// IsValid returns true if the discount type is known
func (t DiscountType) IsValid() bool {
	switch t {
	case DiscountPercentage, DiscountFlat, DiscountFreePlan:
		return true
	}
	return false
}

// String returns the string representation of DiscountType
func (t DiscountType) String() string {
	return string(t)
}

var hundred = decimal.NewFromInt(100)

// Discount is the tagged discount variant of a coupon. Value is a percentage
// for DiscountPercentage, a currency amount for DiscountFlat and always zero
// for DiscountFreePlan.
type Discount struct {
	Type  DiscountType
	Value decimal.Decimal
}

// NewDiscount rounds the value to cents and validates it against the type
func NewDiscount(t DiscountType, value decimal.Decimal) (Discount, error) {
	value = value.Round(2)
	switch t {
	case DiscountPercentage:
		if !value.IsPositive() || value.GreaterThan(hundred) {
			return Discount{}, validationError("Percentage value must be greater than 0 and at most 100")
		}
	case DiscountFlat:
		if !value.IsPositive() {
			return Discount{}, validationError("Flat discount value must be greater than 0")
		}
	case DiscountFreePlan:
		value = decimal.Zero
	default:
		return Discount{}, validationError("Coupon type must be one of percentage, flat, free_plan")
	}
	return Discount{Type: t, Value: value}, nil
}

// Amount returns the discount for a candidate amount, clamped to [0, amount]
// and rounded half-up to 2 decimal places.
func (d Discount) Amount(amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}

	var off decimal.Decimal
	switch d.Type {
	case DiscountPercentage:
		off = amount.Mul(d.Value).Div(hundred)
	case DiscountFlat:
		off = decimal.Min(d.Value, amount)
	case DiscountFreePlan:
		off = amount
	default:
		panic("coupon: unhandled discount type " + string(d.Type))
	}

	if off.IsNegative() {
		off = decimal.Zero
	}
	if off.GreaterThan(amount) {
		off = amount
	}
	return off.Round(2)
}
