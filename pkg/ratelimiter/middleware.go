package ratelimiter

import (
	"net/http"
	"strconv"
	"time"
)

// LimitFunc resolves the quota key and limit for a request. ok=false skips
// limiting.
type LimitFunc func(r *http.Request) (key string, limit int64, ok bool)

// ErrorWriter renders a limiter failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware counts each request and rejects it with ErrLimitExceeded once
// the window is spent. Store failures are passed to onError as well.
func Middleware(l *Limiter, resolve LimitFunc, onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, limit, ok := resolve(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			res, err := l.Allow(r.Context(), key, limit)
			if err != nil {
				onError(w, r, err)
				return
			}

			if res.Limit >= 0 {
				h := w.Header()
				h.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
				h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining(), 10))
				h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			}

			if !res.Allowed() {
				if retry := res.RetryAfter(time.Now()); retry > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				}
				onError(w, r, ErrLimitExceeded)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
