package cache

import (
	"context"
	"time"
)

// Shared key-value store with per-entry TTL
// Get and Take must return apperrors.ErrCacheMiss for absent or expired keys
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Set only if the key is absent. Reports whether the value was stored
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// Atomically return the value and delete the key
	Take(ctx context.Context, key string) (string, error)

	Delete(ctx context.Context, keys ...string) error
}
