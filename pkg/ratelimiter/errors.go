package ratelimiter

import "errors"

var (
	ErrInvalidWindow  = errors.New("ratelimiter: window must be positive")
	ErrLimitExceeded  = errors.New("ratelimiter: limit exceeded")
	ErrStoreFailure   = errors.New("ratelimiter: store unavailable")
	ErrUnknownBackend = errors.New("ratelimiter: unknown store backend")
)
