package coupon

import (
	"context"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/shared"
)

// Filter narrows coupon listings
type Filter struct {
	shared.Filter
	Active *bool
}

// CouponRepository persists coupon definitions. All methods join the
// transaction carried by ctx if there is one.
type CouponRepository interface {
	// FindByID retrieves a coupon by id
	FindByID(ctx context.Context, id uuid.UUID) (*Coupon, error)

	// FindByCode retrieves a coupon by its normalized code
	FindByCode(ctx context.Context, code string) (*Coupon, error)

	// FindAll lists coupons with the total count before pagination
	FindAll(ctx context.Context, filter Filter) ([]Coupon, int64, error)

	// Create inserts a coupon; returns ErrCodeTaken on a duplicate code
	Create(ctx context.Context, c *Coupon) error

	// ToggleActive atomically flips the active flag and returns the new value
	ToggleActive(ctx context.Context, id uuid.UUID) (bool, error)

	// IncrementUsage atomically bumps used_count if the coupon is still
	// active and below its global limit. Returns false when no row matched.
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)

	// DeleteUnused deletes the coupon only while used_count is zero.
	// Returns false when no row matched.
	DeleteUnused(ctx context.Context, id uuid.UUID) (bool, error)
}

// UsageRepository persists redemption records
type UsageRepository interface {
	// Create appends a usage row; returns ErrAlreadyUsed when the per-user
	// uniqueness constraint rejects it
	Create(ctx context.Context, u *CouponUsage) error

	// CountByCouponAndUser counts a user's redemptions of a coupon
	CountByCouponAndUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error)

	// FindHistory lists a coupon's usage joined with user and company names,
	// ordered by applied_at ascending
	FindHistory(ctx context.Context, couponID uuid.UUID) ([]UsageHistoryEntry, error)
}
