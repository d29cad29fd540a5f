// Package cache defines the string key/value cache scribe uses for settings
// reads. Implementations live in the memory and redis sub-packages.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache stores string values with a per-entry TTL. A zero TTL means the
// entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
