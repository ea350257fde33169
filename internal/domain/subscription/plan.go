package subscription

import (
	"sort"

	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PlanID identifies a subscription tier
type PlanID string

const (
	PlanFree       PlanID = "free"
	PlanBasic      PlanID = "basic"
	PlanPro        PlanID = "pro"
	PlanEnterprise PlanID = "enterprise"
)

// AllPlanIDs returns every known plan id in tier order
func AllPlanIDs() []PlanID {
	return []PlanID{PlanFree, PlanBasic, PlanPro, PlanEnterprise}
}

// IsValid returns true if the plan id is one of the known tiers
func (p PlanID) IsValid() bool {
	switch p {
	case PlanFree, PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// String returns the string representation of PlanID
func (p PlanID) String() string {
	return string(p)
}

func (p PlanID) rank() int {
	for i, id := range AllPlanIDs() {
		if id == p {
			return i
		}
	}
	return len(AllPlanIDs())
}

// Plan is a purchasable subscription tier with its list price
type Plan struct {
	ID       PlanID          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// ErrPlanNotFound is returned when a plan id is not in the catalog
var ErrPlanNotFound = shared.NewDomainError("NOT_FOUND", "Plan not found")

// Catalog is the read-only set of plans offered for purchase
type Catalog struct {
	plans map[PlanID]Plan
}

// NewCatalog builds a catalog, rejecting unknown plan ids and negative prices
func NewCatalog(plans []Plan) (*Catalog, error) {
	c := &Catalog{plans: make(map[PlanID]Plan, len(plans))}
	for _, p := range plans {
		if !p.ID.IsValid() {
			return nil, shared.NewDomainError("INVALID_PLAN", "Unknown plan id: "+string(p.ID))
		}
		if p.Price.IsNegative() {
			return nil, shared.NewDomainError("INVALID_PLAN", "Plan price cannot be negative: "+string(p.ID))
		}
		if p.Name == "" {
			p.Name = string(p.ID)
		}
		p.Price = p.Price.Round(2)
		c.plans[p.ID] = p
	}
	return c, nil
}

// Get returns the plan with the given id
func (c *Catalog) Get(id PlanID) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

// List returns all plans in tier order
func (c *Catalog) List() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.rank() < out[j].ID.rank() })
	return out
}
