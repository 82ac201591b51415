package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "risk:stats:2026-08-24", []byte(`{"trade_count":3}`), 0))

	val, err := s.Get(ctx, "risk:stats:2026-08-24")
	require.NoError(t, err)
	assert.Equal(t, `{"trade_count":3}`, string(val))
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemoryStore()
	current := time.Now()
	s.now = func() time.Time { return current }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "report", []byte("cached"), 5*time.Minute))

	// Within the window the value is readable.
	val, err := s.Get(ctx, "report")
	require.NoError(t, err)
	assert.Equal(t, "cached", string(val))

	// Past the window the entry reads as missing.
	current = current.Add(6 * time.Minute)
	_, err = s.Get(ctx, "report")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "key", []byte("value"), 0))
	require.NoError(t, s.Delete(ctx, "key"))
	require.NoError(t, s.Delete(ctx, "key")) // idempotent

	_, err := s.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ValueIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	original := []byte("abc")
	require.NoError(t, s.Set(ctx, "key", original, 0))
	original[0] = 'x'

	val, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(val))

	// Mutating the returned slice does not affect the stored copy.
	val[0] = 'y'
	again, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}
