package coupon

import "context"

// Cache is a read-through cache of coupon definitions keyed by normalized
// code. It serves validation previews only; redemption always reads the
// database.
type Cache interface {
	// Get returns nil, nil on a miss
	Get(ctx context.Context, code string) (*Coupon, error)
	Set(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, code string) error
}
