package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	couponapp "github.com/invsaas/backend/internal/application/coupon"
)

// StubObjectStorage keeps uploaded objects in memory and hands out fake
// download URLs. Used in development and tests.
type StubObjectStorage struct {
	// BaseURL prefixes generated download URLs.
	// Defaults to "https://storage.example.com".
	BaseURL string

	mu      sync.RWMutex
	objects map[string]stubObject
}

type stubObject struct {
	data        []byte
	contentType string
}

var _ couponapp.ObjectStorageService = (*StubObjectStorage)(nil)

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]stubObject),
	}
}

// Upload stores a copy of data under storageKey
func (s *StubObjectStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = stubObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// GenerateDownloadURL returns a fake URL for storageKey
func (s *StubObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339), expiresAt, nil
}

// Object returns the stored bytes and content type of storageKey
func (s *StubObjectStorage) Object(storageKey string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	return obj.data, obj.contentType, ok
}
