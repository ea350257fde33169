// Package subscription provides the plan catalog and subscription purchase
// records of the platform.
//
// A tenant buys one of the catalog plans; the resulting Purchase records the
// list price, any coupon discount and the amount actually charged. Coupon
// rules live in the coupon package; this package only stores their outcome.
package subscription
