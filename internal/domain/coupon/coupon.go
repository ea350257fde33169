package coupon

import (
	"regexp"
	"strings"
	"time"

	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/shopspring/decimal"
)

// AggregateTypeCoupon is the aggregate type name used in domain events
const AggregateTypeCoupon = "Coupon"

var codePattern = regexp.MustCompile(`^[A-Z0-9]{4,20}$`)

// NormalizeCode upper-cases and trims a coupon code. Codes are compared
// case-insensitively by always storing and looking them up normalized.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// UsageLimit caps redemptions. With PerUser set the cap is one redemption per
// user and Total is not enforced; otherwise Total (when set) caps the
// aggregate count.
type UsageLimit struct {
	Total   *int
	PerUser bool
}

// Coupon is an administrator-defined discount on subscription purchases
type Coupon struct {
	shared.BaseAggregateRoot
	Code            string
	Discount        Discount
	ApplicablePlans []subscription.PlanID
	ExpiryDate      *time.Time
	UsageLimit      UsageLimit
	IsActive        bool
	UsedCount       int
	Description     string
}

// Spec is the administrator's input for a new coupon
type Spec struct {
	Code            string
	Type            DiscountType
	Value           decimal.Decimal
	ApplicablePlans []string
	ExpiryDate      *time.Time
	UsageLimitTotal *int
	PerUser         bool
	Description     string
}

// NewCoupon validates a spec and creates an active coupon with no usage
func NewCoupon(spec Spec) (*Coupon, error) {
	code := NormalizeCode(spec.Code)
	if !codePattern.MatchString(code) {
		return nil, validationError("Coupon code must be 4-20 alphanumeric characters")
	}

	discount, err := NewDiscount(spec.Type, spec.Value)
	if err != nil {
		return nil, err
	}

	plans, err := parsePlans(spec.ApplicablePlans)
	if err != nil {
		return nil, err
	}

	if spec.UsageLimitTotal != nil && *spec.UsageLimitTotal < 1 {
		return nil, validationError("Usage limit total must be at least 1")
	}

	if spec.ExpiryDate != nil && !spec.ExpiryDate.After(time.Now()) {
		return nil, validationError("Expiry date must be in the future")
	}

	c := &Coupon{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Discount:          discount,
		ApplicablePlans:   plans,
		ExpiryDate:        spec.ExpiryDate,
		UsageLimit: UsageLimit{
			Total:   spec.UsageLimitTotal,
			PerUser: spec.PerUser,
		},
		IsActive:    true,
		Description: strings.TrimSpace(spec.Description),
	}
	c.AddDomainEvent(NewCouponCreatedEvent(c))
	return c, nil
}

func parsePlans(raw []string) ([]subscription.PlanID, error) {
	if len(raw) == 0 {
		return nil, validationError("At least one applicable plan is required")
	}
	seen := make(map[subscription.PlanID]bool, len(raw))
	plans := make([]subscription.PlanID, 0, len(raw))
	for _, r := range raw {
		id := subscription.PlanID(strings.ToLower(strings.TrimSpace(r)))
		if !id.IsValid() {
			return nil, validationError("Unknown plan: " + r)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		plans = append(plans, id)
	}
	return plans, nil
}

// AppliesTo returns true if the plan is in the coupon's applicable set
func (c *Coupon) AppliesTo(plan subscription.PlanID) bool {
	for _, p := range c.ApplicablePlans {
		if p == plan {
			return true
		}
	}
	return false
}

// IsExpired returns true if the expiry date is set and not after now
func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ExpiryDate != nil && !c.ExpiryDate.After(now)
}

// HasGlobalLimit returns true if the aggregate usage cap is enforced
func (c *Coupon) HasGlobalLimit() bool {
	return c.UsageLimit.Total != nil && !c.UsageLimit.PerUser
}

// RemainingUses returns the remaining aggregate redemptions, or -1 when the
// coupon has no global limit.
func (c *Coupon) RemainingUses() int {
	if !c.HasGlobalLimit() {
		return -1
	}
	remaining := *c.UsageLimit.Total - c.UsedCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SetActive records the active flag as stored after a toggle
func (c *Coupon) SetActive(active bool) {
	c.IsActive = active
	c.Touch(time.Now())
	if c.IsActive {
		c.AddDomainEvent(NewCouponActivatedEvent(c))
	} else {
		c.AddDomainEvent(NewCouponDeactivatedEvent(c))
	}
}

// EnsureDeletable returns ErrHasUsage once the coupon has been redeemed
func (c *Coupon) EnsureDeletable() error {
	if c.UsedCount > 0 {
		return ErrHasUsage
	}
	return nil
}
