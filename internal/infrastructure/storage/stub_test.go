package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStubObjectStorage(t *testing.T) {
	s := NewStubObjectStorage()
	require.NotNil(t, s)
	assert.Equal(t, "https://storage.example.com", s.BaseURL)
}

func TestStubObjectStorage_Upload(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()

	t.Run("stores a copy", func(t *testing.T) {
		data := []byte(`{"code":"SAVE20"}` + "\n")
		require.NoError(t, s.Upload(ctx, "exports/a.jsonl", data, "application/x-ndjson"))
		data[0] = 'X'

		got, contentType, ok := s.Object("exports/a.jsonl")
		require.True(t, ok)
		assert.Equal(t, `{"code":"SAVE20"}`+"\n", string(got))
		assert.Equal(t, "application/x-ndjson", contentType)
	})

	t.Run("empty storage key", func(t *testing.T) {
		err := s.Upload(ctx, "", nil, "text/plain")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage key is required")
	})

	t.Run("missing object", func(t *testing.T) {
		_, _, ok := s.Object("nope")
		assert.False(t, ok)
	})
}

func TestStubObjectStorage_GenerateDownloadURL(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		url, expiresAt, err := s.GenerateDownloadURL(ctx, "exports/a.jsonl", time.Hour)
		require.NoError(t, err)
		assert.Contains(t, url, "https://storage.example.com/download/exports/a.jsonl")
		assert.True(t, expiresAt.After(time.Now()))
	})

	t.Run("empty storage key", func(t *testing.T) {
		_, _, err := s.GenerateDownloadURL(ctx, "", time.Hour)
		require.Error(t, err)
	})
}
