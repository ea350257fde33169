package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/coupon"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CouponUsageModel is the GORM model for coupon usage rows. Rows are only
// ever inserted.
type CouponUsageModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CouponID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_coupon_usages_per_user,priority:1;index:idx_coupon_usages_coupon_applied,priority:1"`
	PerUserKey     string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_coupon_usages_per_user,priority:2"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	PlanID         string          `gorm:"type:varchar(20);not null"`
	PurchaseID     uuid.UUID       `gorm:"type:uuid;not null"`
	OriginalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	AppliedAt      time.Time       `gorm:"not null;index:idx_coupon_usages_coupon_applied,priority:2"`
}

// TableName returns the table name for the model
func (CouponUsageModel) TableName() string {
	return "coupon_usages"
}

// ToEntity converts the model to a domain entity
func (m *CouponUsageModel) ToEntity() coupon.CouponUsage {
	return coupon.CouponUsage{
		ID:             m.ID,
		CouponID:       m.CouponID,
		UserID:         m.UserID,
		TenantID:       m.TenantID,
		PlanID:         subscription.PlanID(m.PlanID),
		PurchaseID:     m.PurchaseID,
		OriginalAmount: m.OriginalAmount,
		DiscountAmount: m.DiscountAmount,
		FinalAmount:    m.FinalAmount,
		AppliedAt:      m.AppliedAt,
		PerUserKey:     m.PerUserKey,
	}
}

// CouponUsageModelFromEntity creates a model from a domain entity
func CouponUsageModelFromEntity(u *coupon.CouponUsage) *CouponUsageModel {
	return &CouponUsageModel{
		ID:             u.ID,
		CouponID:       u.CouponID,
		PerUserKey:     u.PerUserKey,
		UserID:         u.UserID,
		TenantID:       u.TenantID,
		PlanID:         string(u.PlanID),
		PurchaseID:     u.PurchaseID,
		OriginalAmount: u.OriginalAmount,
		DiscountAmount: u.DiscountAmount,
		FinalAmount:    u.FinalAmount,
		AppliedAt:      u.AppliedAt,
	}
}

// usageHistoryRow is the scan target of the history join
type usageHistoryRow struct {
	CouponUsageModel
	Username        string
	UserDisplayName string
	CompanyName     string
}

// GormCouponUsageRepository implements coupon.UsageRepository
type GormCouponUsageRepository struct {
	db *gorm.DB
}

var _ coupon.UsageRepository = (*GormCouponUsageRepository)(nil)

// NewGormCouponUsageRepository creates a new usage repository
func NewGormCouponUsageRepository(db *gorm.DB) *GormCouponUsageRepository {
	return &GormCouponUsageRepository{db: db}
}

// Create appends a usage row. The unique (coupon_id, per_user_key) index
// turns a second redemption by the same user of a per-user coupon into
// ErrAlreadyUsed.
func (r *GormCouponUsageRepository) Create(ctx context.Context, u *coupon.CouponUsage) error {
	if err := conn(ctx, r.db).Create(CouponUsageModelFromEntity(u)).Error; err != nil {
		if isDuplicateKeyError(err) {
			return coupon.ErrAlreadyUsed
		}
		return fmt.Errorf("create coupon usage: %w", err)
	}
	return nil
}

// CountByCouponAndUser counts a user's redemptions of a coupon
func (r *GormCouponUsageRepository) CountByCouponAndUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&CouponUsageModel{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count coupon usage: %w", err)
	}
	return count, nil
}

// FindHistory lists usage rows of a coupon with user and company names,
// oldest first. Users or tenants that no longer exist leave the names empty.
func (r *GormCouponUsageRepository) FindHistory(ctx context.Context, couponID uuid.UUID) ([]coupon.UsageHistoryEntry, error) {
	var rows []usageHistoryRow
	err := conn(ctx, r.db).
		Table("coupon_usages").
		Select(`coupon_usages.*,
			COALESCE(users.username, '') AS username,
			COALESCE(users.display_name, '') AS user_display_name,
			COALESCE(tenants.name, '') AS company_name`).
		Joins("LEFT JOIN users ON users.id = coupon_usages.user_id").
		Joins("LEFT JOIN tenants ON tenants.id = coupon_usages.tenant_id").
		Where("coupon_usages.coupon_id = ?", couponID).
		Order("coupon_usages.applied_at ASC").
		Order("coupon_usages.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find coupon usage history: %w", err)
	}

	entries := make([]coupon.UsageHistoryEntry, len(rows))
	for i := range rows {
		entries[i] = coupon.UsageHistoryEntry{
			CouponUsage:     rows[i].ToEntity(),
			Username:        rows[i].Username,
			UserDisplayName: rows[i].UserDisplayName,
			CompanyName:     rows[i].CompanyName,
		}
	}
	return entries, nil
}
