package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SubscriptionPurchaseModel is the GORM model for subscription purchases
type SubscriptionPurchaseModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null"`
	PlanID         string          `gorm:"type:varchar(20);not null"`
	ListAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency       string          `gorm:"type:varchar(3);not null"`
	CouponID       *uuid.UUID      `gorm:"type:uuid;index"`
	CouponCode     string          `gorm:"type:varchar(20)"`
	Status         string          `gorm:"type:varchar(20);not null"`
	PurchasedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName returns the table name for the model
func (SubscriptionPurchaseModel) TableName() string {
	return "subscription_purchases"
}

// ToEntity converts the model to a domain entity
func (m *SubscriptionPurchaseModel) ToEntity() *subscription.Purchase {
	return &subscription.Purchase{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
			},
			TenantID: m.TenantID,
		},
		UserID:         m.UserID,
		PlanID:         subscription.PlanID(m.PlanID),
		ListAmount:     m.ListAmount,
		DiscountAmount: m.DiscountAmount,
		FinalAmount:    m.FinalAmount,
		Currency:       m.Currency,
		CouponID:       m.CouponID,
		CouponCode:     m.CouponCode,
		Status:         subscription.PurchaseStatus(m.Status),
		PurchasedAt:    m.PurchasedAt,
	}
}

// SubscriptionPurchaseModelFromEntity creates a model from a domain entity
func SubscriptionPurchaseModelFromEntity(p *subscription.Purchase) *SubscriptionPurchaseModel {
	return &SubscriptionPurchaseModel{
		ID:             p.ID,
		TenantID:       p.TenantID,
		UserID:         p.UserID,
		PlanID:         string(p.PlanID),
		ListAmount:     p.ListAmount,
		DiscountAmount: p.DiscountAmount,
		FinalAmount:    p.FinalAmount,
		Currency:       p.Currency,
		CouponID:       p.CouponID,
		CouponCode:     p.CouponCode,
		Status:         string(p.Status),
		PurchasedAt:    p.PurchasedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// GormPurchaseRepository implements subscription.PurchaseRepository
type GormPurchaseRepository struct {
	db *gorm.DB
}

var _ subscription.PurchaseRepository = (*GormPurchaseRepository)(nil)

// NewGormPurchaseRepository creates a new purchase repository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// Create inserts a purchase
func (r *GormPurchaseRepository) Create(ctx context.Context, p *subscription.Purchase) error {
	if err := conn(ctx, r.db).Create(SubscriptionPurchaseModelFromEntity(p)).Error; err != nil {
		return fmt.Errorf("create subscription purchase: %w", err)
	}
	return nil
}

// FindByIDForTenant retrieves a purchase belonging to tenantID
func (r *GormPurchaseRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*subscription.Purchase, error) {
	var model SubscriptionPurchaseModel
	err := conn(ctx, r.db).First(&model, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find subscription purchase %s: %w", id, err)
	}
	return model.ToEntity(), nil
}

// FindAllForTenant lists a tenant's purchases, newest first by default
func (r *GormPurchaseRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]subscription.Purchase, int64, error) {
	query := conn(ctx, r.db).Model(&SubscriptionPurchaseModel{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count subscription purchases: %w", err)
	}

	column := ValidateSortField(filter.OrderBy, PurchaseSortFields, "created_at")
	query = query.Order(column + " " + ValidateSortOrder(filter.OrderDir)).Order("id ASC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var models []SubscriptionPurchaseModel
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("list subscription purchases: %w", err)
	}

	purchases := make([]subscription.Purchase, len(models))
	for i := range models {
		purchases[i] = *models[i].ToEntity()
	}
	return purchases, total, nil
}
