package subscription

import (
	"context"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/shared"
)

// PurchaseRepository persists subscription purchases
type PurchaseRepository interface {
	// Create inserts a new purchase; joins the transaction carried by ctx if any
	Create(ctx context.Context, purchase *Purchase) error

	// FindByIDForTenant retrieves a purchase of the given tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Purchase, error)

	// FindAllForTenant lists a tenant's purchases, newest first
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Purchase, int64, error)
}
