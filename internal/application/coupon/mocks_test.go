package coupon

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/invsaas/backend/internal/domain/coupon"
	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockCouponRepository is a mock implementation of coupon.CouponRepository
type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*coupon.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.Coupon), args.Error(1)
}

func (m *MockCouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.Coupon), args.Error(1)
}

func (m *MockCouponRepository) FindAll(ctx context.Context, filter coupon.Filter) ([]coupon.Coupon, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]coupon.Coupon), args.Get(1).(int64), args.Error(2)
}

func (m *MockCouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCouponRepository) ToggleActive(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCouponRepository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCouponRepository) DeleteUnused(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockUsageRepository is a mock implementation of coupon.UsageRepository
type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Create(ctx context.Context, u *coupon.CouponUsage) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUsageRepository) CountByCouponAndUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, couponID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUsageRepository) FindHistory(ctx context.Context, couponID uuid.UUID) ([]coupon.UsageHistoryEntry, error) {
	args := m.Called(ctx, couponID)
	return args.Get(0).([]coupon.UsageHistoryEntry), args.Error(1)
}

// MockCache is a mock implementation of coupon.Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, code string) (*coupon.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.Coupon), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, c *coupon.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

// =============================================================================
// Fakes
// =============================================================================

// fakeTxManager runs fn directly and counts the transactions it was asked for
type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// memoryStorage keeps uploads in a map
type memoryStorage struct {
	objects map[string][]byte
	err     error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (s *memoryStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if s.err != nil {
		return s.err
	}
	s.objects[key] = data
	return nil
}

func (s *memoryStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://storage.test/" + key, time.Now().Add(time.Hour), nil
}

// =============================================================================
// Fixtures
// =============================================================================

type couponOption func(*coupon.Spec)

func withType(t coupon.DiscountType, value string) couponOption {
	return func(s *coupon.Spec) {
		s.Type = t
		s.Value = decimal.RequireFromString(value)
	}
}

func withTotal(n int) couponOption {
	return func(s *coupon.Spec) { s.UsageLimitTotal = &n }
}

func withPerUser() couponOption {
	return func(s *coupon.Spec) { s.PerUser = true }
}

func withPlans(plans ...string) couponOption {
	return func(s *coupon.Spec) { s.ApplicablePlans = plans }
}

// newTestCoupon builds an active SAVE20 coupon: 20% off basic and pro
func newTestCoupon(opts ...couponOption) *coupon.Coupon {
	spec := coupon.Spec{
		Code:            "save20",
		Type:            coupon.DiscountPercentage,
		Value:           decimal.NewFromInt(20),
		ApplicablePlans: []string{"basic", "pro"},
	}
	for _, opt := range opts {
		opt(&spec)
	}
	c, err := coupon.NewCoupon(spec)
	if err != nil {
		panic(err)
	}
	c.PullDomainEvents()
	return c
}
