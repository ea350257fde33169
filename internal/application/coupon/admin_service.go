package coupon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/coupon"
	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/invsaas/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ObjectStorageService stores usage exports and hands out download links
type ObjectStorageService interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// ErrExportUnavailable is returned when no object storage is configured
var ErrExportUnavailable = shared.NewDomainError("EXPORT_UNAVAILABLE", "Usage export storage is not configured")

const exportContentType = "application/x-ndjson"

// AdminService handles the administrator's coupon operations
type AdminService struct {
	couponRepo     coupon.CouponRepository
	usageRepo      coupon.UsageRepository
	eventPublisher shared.EventPublisher
	storage        ObjectStorageService
	exportPrefix   string
}

// NewAdminService creates a new AdminService
func NewAdminService(couponRepo coupon.CouponRepository, usageRepo coupon.UsageRepository) *AdminService {
	return &AdminService{
		couponRepo: couponRepo,
		usageRepo:  usageRepo,
	}
}

// SetEventPublisher sets the publisher for coupon lifecycle events
func (s *AdminService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetExportStorage enables usage exports under prefix
func (s *AdminService) SetExportStorage(storage ObjectStorageService, prefix string) {
	s.storage = storage
	s.exportPrefix = prefix
}

// Create creates a new coupon
func (s *AdminService) Create(ctx context.Context, req CreateCouponRequest) (*CouponResponse, error) {
	c, err := coupon.NewCoupon(req.ToSpec())
	if err != nil {
		return nil, err
	}

	if err := s.couponRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("coupon created",
		zap.String("coupon_id", c.ID.String()),
		zap.String("code", c.Code),
		zap.String("type", c.Discount.Type.String()),
	)
	s.publishEvents(ctx, c)

	response := ToCouponResponse(c)
	return &response, nil
}

// List retrieves coupons with filtering and pagination
func (s *AdminService) List(ctx context.Context, filter CouponListFilter) ([]CouponResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	coupons, total, err := s.couponRepo.FindAll(ctx, coupon.Filter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		Active: filter.Active,
	})
	if err != nil {
		return nil, 0, err
	}

	return ToCouponResponses(coupons), total, nil
}

// GetByID retrieves a coupon by ID
func (s *AdminService) GetByID(ctx context.Context, id uuid.UUID) (*CouponResponse, error) {
	c, err := s.couponRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := ToCouponResponse(c)
	return &response, nil
}

// ToggleActive flips the coupon's active flag
func (s *AdminService) ToggleActive(ctx context.Context, id uuid.UUID) (*CouponResponse, error) {
	c, err := s.couponRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	active, err := s.couponRepo.ToggleActive(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.SetActive(active)

	logger.L(ctx).Info("coupon toggled",
		zap.String("coupon_id", c.ID.String()),
		zap.String("code", c.Code),
		zap.Bool("is_active", c.IsActive),
	)
	s.publishEvents(ctx, c)

	response := ToCouponResponse(c)
	return &response, nil
}

// Delete removes a coupon that has never been redeemed
func (s *AdminService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.couponRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := c.EnsureDeletable(); err != nil {
		return err
	}

	deleted, err := s.couponRepo.DeleteUnused(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		// A redemption or another delete got there first
		if _, err := s.couponRepo.FindByID(ctx, id); err != nil {
			return err
		}
		return coupon.ErrHasUsage
	}

	logger.L(ctx).Info("coupon deleted",
		zap.String("coupon_id", c.ID.String()),
		zap.String("code", c.Code),
	)
	c.AddDomainEvent(coupon.NewCouponDeletedEvent(c))
	s.publishEvents(ctx, c)
	return nil
}

// UsageHistory lists a coupon's redemptions, oldest first
func (s *AdminService) UsageHistory(ctx context.Context, id uuid.UUID) ([]UsageHistoryResponse, error) {
	if _, err := s.couponRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	entries, err := s.usageRepo.FindHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToUsageHistoryResponses(entries), nil
}

// ExportUsage writes a coupon's usage history to object storage as JSON
// lines and returns a download link
func (s *AdminService) ExportUsage(ctx context.Context, id uuid.UUID) (*UsageExportResponse, error) {
	if s.storage == nil {
		return nil, ErrExportUnavailable
	}

	c, err := s.couponRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.usageRepo.FindHistory(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := encodeUsageLines(c.Code, ToUsageHistoryResponses(entries))
	if err != nil {
		return nil, err
	}

	key := path.Join(s.exportPrefix, c.Code, time.Now().UTC().Format("20060102T150405Z")+".jsonl")
	if err := s.storage.Upload(ctx, key, data, exportContentType); err != nil {
		return nil, fmt.Errorf("failed to store usage export: %w", err)
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to sign usage export: %w", err)
	}

	logger.L(ctx).Info("coupon usage exported",
		zap.String("coupon_id", c.ID.String()),
		zap.String("storage_key", key),
		zap.Int("rows", len(entries)),
	)

	return &UsageExportResponse{
		CouponID:    c.ID,
		Code:        c.Code,
		StorageKey:  key,
		Rows:        len(entries),
		DownloadURL: url,
		ExpiresAt:   expiresAt,
	}, nil
}

type usageExportLine struct {
	CouponCode string `json:"coupon_code"`
	UsageHistoryResponse
}

func encodeUsageLines(code string, rows []UsageHistoryResponse) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(usageExportLine{CouponCode: code, UsageHistoryResponse: row}); err != nil {
			return nil, fmt.Errorf("failed to encode usage row: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func (s *AdminService) publishEvents(ctx context.Context, c *coupon.Coupon) {
	events := c.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("failed to publish coupon events",
			zap.String("coupon_id", c.ID.String()),
			zap.Error(err),
		)
	}
}
