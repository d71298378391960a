package identity

import (
	"context"
	"log/slog"
)

type contextKey struct{ name string }

var claimsContextKey = &contextKey{name: "identity_claims"}

// WithClaims stores c in ctx.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, c)
}

// ClaimsFromContext returns the claims stored by Middleware.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(Claims)
	return c, ok
}

// LoggerExtractor adds the authenticated subject to log records.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if c, ok := ClaimsFromContext(ctx); ok && c.Subject != "" {
			return slog.String("user_id", c.Subject), true
		}
		return slog.Attr{}, false
	}
}
