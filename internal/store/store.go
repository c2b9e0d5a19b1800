// Package store abstracts the process-shared mutable state the API keeps
// outside the database: rate-limit counters and the metrics cache. Callers
// program against Store so the in-memory implementation (single instance) and
// the Redis implementation (shared across instances) are interchangeable
// without touching call sites.
package store

import (
	"context"
	"time"
)

type Store interface {
	// Get unmarshals the cached value for key into dest. The second return
	// reports whether the key was present and unexpired.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Increment bumps the fixed-window counter for key. The first increment
	// opens a window of the given length; the count and the window's reset
	// time are returned.
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error)

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	Close() error
}
