package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/coupon"
	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CouponModel is the GORM model for coupons
type CouponModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Code            string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_coupons_code"`
	Type            string          `gorm:"type:varchar(20);not null"`
	Value           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ApplicablePlans string          `gorm:"type:text;not null"` // JSON array of plan ids
	ExpiryDate      *time.Time
	UsageLimitTotal *int   `gorm:"column:usage_limit_total"`
	UsagePerUser    bool   `gorm:"column:usage_per_user;not null;default:false"`
	IsActive        bool   `gorm:"not null;index"`
	UsedCount       int    `gorm:"not null;default:0"`
	Description     string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for the model
func (CouponModel) TableName() string {
	return "coupons"
}

// ToEntity converts the model to a domain entity
func (m *CouponModel) ToEntity() (*coupon.Coupon, error) {
	var plans []subscription.PlanID
	if m.ApplicablePlans != "" {
		if err := json.Unmarshal([]byte(m.ApplicablePlans), &plans); err != nil {
			return nil, fmt.Errorf("decode applicable plans of coupon %s: %w", m.ID, err)
		}
	}

	return &coupon.Coupon{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
		},
		Code: m.Code,
		Discount: coupon.Discount{
			Type:  coupon.DiscountType(m.Type),
			Value: m.Value,
		},
		ApplicablePlans: plans,
		ExpiryDate:      m.ExpiryDate,
		UsageLimit: coupon.UsageLimit{
			Total:   m.UsageLimitTotal,
			PerUser: m.UsagePerUser,
		},
		IsActive:    m.IsActive,
		UsedCount:   m.UsedCount,
		Description: m.Description,
	}, nil
}

// CouponModelFromEntity creates a model from a domain entity
func CouponModelFromEntity(c *coupon.Coupon) (*CouponModel, error) {
	plans, err := json.Marshal(c.ApplicablePlans)
	if err != nil {
		return nil, fmt.Errorf("encode applicable plans: %w", err)
	}
	return &CouponModel{
		ID:              c.ID,
		Code:            c.Code,
		Type:            string(c.Discount.Type),
		Value:           c.Discount.Value,
		ApplicablePlans: string(plans),
		ExpiryDate:      c.ExpiryDate,
		UsageLimitTotal: c.UsageLimit.Total,
		UsagePerUser:    c.UsageLimit.PerUser,
		IsActive:        c.IsActive,
		UsedCount:       c.UsedCount,
		Description:     c.Description,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}, nil
}

// GormCouponRepository implements coupon.CouponRepository
type GormCouponRepository struct {
	db *gorm.DB
}

var _ coupon.CouponRepository = (*GormCouponRepository)(nil)

// NewGormCouponRepository creates a new coupon repository
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// FindByID retrieves a coupon by id
func (r *GormCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*coupon.Coupon, error) {
	var model CouponModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, coupon.ErrCouponNotFound
		}
		return nil, fmt.Errorf("find coupon %s: %w", id, err)
	}
	return model.ToEntity()
}

// FindByCode retrieves a coupon by code, case-insensitively
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	var model CouponModel
	err := conn(ctx, r.db).First(&model, "code = ?", coupon.NormalizeCode(code)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, coupon.ErrCouponNotFound
		}
		return nil, fmt.Errorf("find coupon by code: %w", err)
	}
	return model.ToEntity()
}

// FindAll lists coupons matching the filter, newest first by default
func (r *GormCouponRepository) FindAll(ctx context.Context, filter coupon.Filter) ([]coupon.Coupon, int64, error) {
	query := conn(ctx, r.db).Model(&CouponModel{})

	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("(LOWER(code) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count coupons: %w", err)
	}

	column := ValidateSortField(filter.OrderBy, CouponSortFields, "created_at")
	query = query.Order(column + " " + ValidateSortOrder(filter.OrderDir)).Order("id ASC")

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var models []CouponModel
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}

	coupons := make([]coupon.Coupon, 0, len(models))
	for i := range models {
		c, err := models[i].ToEntity()
		if err != nil {
			return nil, 0, err
		}
		coupons = append(coupons, *c)
	}
	return coupons, total, nil
}

// Create inserts a new coupon
func (r *GormCouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	model, err := CouponModelFromEntity(c)
	if err != nil {
		return err
	}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateKeyError(err) {
			return coupon.ErrCodeTaken
		}
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

// ToggleActive flips is_active in a single UPDATE and returns the stored
// value. It never writes the usage counter.
func (r *GormCouponRepository) ToggleActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var model CouponModel
	result := conn(ctx, r.db).Model(&model).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "is_active"}}}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  gorm.Expr("NOT is_active"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("toggle coupon %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return false, coupon.ErrCouponNotFound
	}
	return model.IsActive, nil
}

// IncrementUsage bumps used_count in a single conditional UPDATE. The WHERE
// clause re-checks the active flag and the global limit against the row as
// it is at write time, so concurrent redemptions can never push used_count
// past usage_limit_total.
func (r *GormCouponRepository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	result := conn(ctx, r.db).Model(&CouponModel{}).
		Where("id = ?", id).
		Where("is_active = ?", true).
		Where("(usage_limit_total IS NULL OR usage_per_user = ? OR used_count < usage_limit_total)", true).
		Updates(map[string]interface{}{
			"used_count": gorm.Expr("used_count + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("increment coupon usage: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// DeleteUnused removes the coupon only while it has never been redeemed
func (r *GormCouponRepository) DeleteUnused(ctx context.Context, id uuid.UUID) (bool, error) {
	result := conn(ctx, r.db).
		Where("id = ? AND used_count = 0", id).
		Delete(&CouponModel{})
	if result.Error != nil {
		return false, fmt.Errorf("delete coupon %s: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}
