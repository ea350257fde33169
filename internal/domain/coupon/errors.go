package coupon

import "github.com/invsaas/backend/internal/domain/shared"

// Error codes returned by the coupon context
const (
	CodeNotFound        = "NOT_FOUND"
	CodeAlreadyExists   = "ALREADY_EXISTS"
	CodeValidation      = "VALIDATION_ERROR"
	CodeInactive        = "COUPON_INACTIVE"
	CodeExpired         = "COUPON_EXPIRED"
	CodePlanNotEligible = "COUPON_PLAN_NOT_ELIGIBLE"
	CodeLimitReached    = "COUPON_LIMIT_REACHED"
	CodeAlreadyUsed     = "COUPON_ALREADY_USED"
	CodeHasUsage        = "COUPON_HAS_USAGE"
)

var (
	ErrCouponNotFound  = shared.NewDomainError(CodeNotFound, "Coupon not found")
	ErrCodeTaken       = shared.NewDomainError(CodeAlreadyExists, "A coupon with this code already exists")
	ErrInactive        = shared.NewDomainError(CodeInactive, "Coupon is not active")
	ErrExpired         = shared.NewDomainError(CodeExpired, "Coupon has expired")
	ErrPlanNotEligible = shared.NewDomainError(CodePlanNotEligible, "Coupon is not applicable to this plan")
	ErrLimitReached    = shared.NewDomainError(CodeLimitReached, "Coupon usage limit has been reached")
	ErrAlreadyUsed     = shared.NewDomainError(CodeAlreadyUsed, "Coupon has already been used by this user")
	ErrHasUsage        = shared.NewDomainError(CodeHasUsage, "Coupon has been redeemed and cannot be deleted")
)

func validationError(message string) *shared.DomainError {
	return shared.NewDomainError(CodeValidation, message)
}

// IsRedemptionRejection reports whether err is one of the business rejections
// a redemption attempt can end with, as opposed to an infrastructure failure.
func IsRedemptionRejection(err error) bool {
	switch shared.CodeOf(err) {
	case CodeNotFound, CodeInactive, CodeExpired, CodePlanNotEligible,
		CodeLimitReached, CodeAlreadyUsed, CodeValidation:
		return true
	}
	return false
}
