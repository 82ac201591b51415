// Package store provides the injected key-value persistence boundary for
// the decision components. In-memory state inside the components stays
// authoritative; the store is a write-through target so a durable backend
// can be swapped in without touching decision logic.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no value or its TTL has lapsed.
var ErrNotFound = errors.New("store: key not found")

// Store is a minimal namespaced key-value contract. Values are opaque
// bytes; callers own the encoding. A zero TTL means no expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
