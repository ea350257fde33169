// Package coupon provides the discount coupon bounded context.
//
// Key Aggregates:
//   - Coupon: an administrator-defined discount with plan eligibility,
//     expiry and usage limits
//   - CouponUsage: immutable record of one successful redemption
//
// Validate is the pure decision step for a redemption attempt. It never
// touches storage: the caller reads the coupon and the user's prior
// redemption count and passes them in. The usage counter itself is only
// ever changed by the repository's conditional increment.
package coupon
