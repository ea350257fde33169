package cache

import (
	"context"
	"sync"
	"time"

	"github.com/invsaas/backend/internal/domain/coupon"
)

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryCouponCache implements coupon.Cache for single-instance
// deployments and tests. Entries are stored encoded so callers never share
// a coupon pointer with the cache.
type InMemoryCouponCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

var _ coupon.Cache = (*InMemoryCouponCache)(nil)

// NewInMemoryCouponCache creates an in-memory cache with the given TTL
func NewInMemoryCouponCache(ttl time.Duration) *InMemoryCouponCache {
	return &InMemoryCouponCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a coupon by code
func (c *InMemoryCouponCache) Get(_ context.Context, code string) (*coupon.Coupon, error) {
	key := coupon.NormalizeCode(code)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, nil
	}
	return decodeCoupon(entry.data)
}

// Set stores a coupon under its code
func (c *InMemoryCouponCache) Set(_ context.Context, cp *coupon.Coupon) error {
	if cp == nil {
		return nil
	}
	data, err := encodeCoupon(cp)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[coupon.NormalizeCode(cp.Code)] = cacheEntry{data: data, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

// Delete removes a coupon by code
func (c *InMemoryCouponCache) Delete(_ context.Context, code string) error {
	c.mu.Lock()
	delete(c.entries, coupon.NormalizeCode(code))
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included
func (c *InMemoryCouponCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
