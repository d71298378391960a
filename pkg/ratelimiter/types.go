package ratelimiter

import "time"

// Unlimited disables enforcement for a key.
const Unlimited int64 = -1

// Result is the state of a key's current window.
type Result struct {
	Limit   int64     `json:"limit"`
	Used    int64     `json:"used"`
	ResetAt time.Time `json:"reset_at"`
}

// Allowed reports whether the counted request fits in the window.
func (r Result) Allowed() bool {
	return r.Limit < 0 || r.Used <= r.Limit
}

// Remaining returns requests left in the window, or Unlimited.
func (r Result) Remaining() int64 {
	if r.Limit < 0 {
		return Unlimited
	}
	return max(0, r.Limit-r.Used)
}

// RetryAfter returns how long until the window resets when denied.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(0, r.ResetAt.Sub(now))
}

// Config selects the quota backend.
type Config struct {
	Enabled bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Store   string        `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	Window  time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"24h"`
	Prefix  string        `env:"RATE_LIMIT_PREFIX" envDefault:"quota:"`
}

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)
