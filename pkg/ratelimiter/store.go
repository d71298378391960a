package ratelimiter

import (
	"context"
	"time"
)

// Store counts hits per key within a window that starts at the first hit.
type Store interface {
	// Increment adds one hit and returns the window's count and reset time.
	Increment(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
	// Peek returns the current count without adding a hit. A key with no
	// open window reports zero.
	Peek(ctx context.Context, key string) (count int64, resetAt time.Time, err error)
	// Reset drops the key's window.
	Reset(ctx context.Context, key string) error
}
