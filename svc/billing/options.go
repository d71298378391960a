package billing

import (
	"log/slog"
	"time"
)

// Option configures a Ledger.
type Option func(*Ledger)

func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(l *Ledger) {
		if m != nil {
			l.metrics = m
		}
	}
}

// WithGatewayTimeout bounds every gateway call.
func WithGatewayTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.gatewayTimeout = d
		}
	}
}

// WithClaimTTL sets how long a verification claim lives before it expires.
func WithClaimTTL(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.claimTTL = d
		}
	}
}

// WithClaimPollInterval sets the initial wait between reads while another
// process holds an order's claim.
func WithClaimPollInterval(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.pollInterval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithConfig applies the timing settings from cfg.
func WithConfig(cfg Config) Option {
	return func(l *Ledger) {
		WithGatewayTimeout(cfg.GatewayTimeout)(l)
		WithClaimTTL(cfg.ClaimTTL)(l)
		WithClaimPollInterval(cfg.ClaimPollInterval)(l)
	}
}
