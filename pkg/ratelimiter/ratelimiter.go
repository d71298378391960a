package ratelimiter

import (
	"context"
	"time"
)

// Limiter applies caller-supplied limits over a fixed window.
type Limiter struct {
	store  Store
	window time.Duration
}

func New(store Store, window time.Duration) (*Limiter, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	return &Limiter{store: store, window: window}, nil
}

// Window returns the quota window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Allow counts one request for key against limit.
func (l *Limiter) Allow(ctx context.Context, key string, limit int64) (Result, error) {
	count, resetAt, err := l.store.Increment(ctx, key, l.window)
	if err != nil {
		return Result{}, err
	}
	return Result{Limit: limit, Used: count, ResetAt: resetAt}, nil
}

// Usage reports key's current window without counting a request.
func (l *Limiter) Usage(ctx context.Context, key string, limit int64) (Result, error) {
	count, resetAt, err := l.store.Peek(ctx, key)
	if err != nil {
		return Result{}, err
	}
	return Result{Limit: limit, Used: count, ResetAt: resetAt}, nil
}

func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, key)
}
