// Package ratelimiter enforces per-key request quotas over fixed windows.
//
// The limit is resolved per request rather than fixed at construction, so a
// single Limiter can serve callers on different plans:
//
//	lim := ratelimiter.New(ratelimiter.NewRedisStore(client, "quota:"), 24*time.Hour)
//	r.Use(ratelimiter.Middleware(lim, func(r *http.Request) (string, int64, bool) {
//		claims, ok := identity.ClaimsFromContext(r.Context())
//		if !ok {
//			return "", 0, false
//		}
//		return claims.Subject, catalog.Limits(access.ParseTier(claims.Tier))["requests_per_day"], true
//	}, writeError))
//
// A negative limit means unlimited; requests are still counted so usage can
// be reported.
package ratelimiter
