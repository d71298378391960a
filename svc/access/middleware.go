package access

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/backend-bits/saas-backend/pkg/identity"
)

// DenyHook observes every authorization denial.
type DenyHook func(ctx context.Context, err *AuthorizationError)

// RequireTier rejects requests whose claims tier does not satisfy required.
// It must run after identity.Middleware; missing claims are reported as an
// authentication failure.
func RequireTier(g *Gate, required Tier, onError identity.ErrorWriter, hooks ...DenyHook) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := identity.ClaimsFromContext(r.Context())
			if !ok {
				onError(w, r, &identity.AuthenticationError{Cause: identity.ErrMissingToken})
				return
			}

			if err := g.Check(ParseTier(claims.Tier), required); err != nil {
				var authzErr *AuthorizationError
				if errors.As(err, &authzErr) {
					for _, h := range hooks {
						h(r.Context(), authzErr)
					}
				}
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GrantSource reports the highest tier a user has been granted by verified
// orders.
type GrantSource interface {
	HighestGrantedTier(ctx context.Context, userID string) (Tier, error)
}

// Reconcile lowers the claims tier to the highest tier granted by src, so a
// token can never claim more than the ledger has confirmed. Claims carrying a
// tier outside the ordering pass through untouched and are denied later.
func Reconcile(order *Ordering, src GrantSource, onError identity.ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := identity.ClaimsFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claimed := ParseTier(claims.Tier)
			if !order.Known(claimed) {
				next.ServeHTTP(w, r)
				return
			}

			granted, err := src.HighestGrantedTier(r.Context(), claims.Subject)
			if err != nil {
				onError(w, r, fmt.Errorf("access: resolve granted tier: %w", err))
				return
			}

			if effective := order.Min(claimed, granted); effective != claimed {
				claims.Tier = effective.String()
				r = r.WithContext(identity.WithClaims(r.Context(), claims))
			}

			next.ServeHTTP(w, r)
		})
	}
}
