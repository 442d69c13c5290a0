package cache

import (
	"context"
	"time"
)

// Cache defines the interface for the optional read-through profile cache.
// A missing key is reported as ("", nil), not an error.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}
