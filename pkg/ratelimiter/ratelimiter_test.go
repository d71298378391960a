package ratelimiter_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backend-bits/saas-backend/pkg/ratelimiter"
)

func storeContract(t *testing.T, store ratelimiter.Store, expire func()) {
	ctx := context.Background()

	count, _, err := store.Peek(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	for want := int64(1); want <= 3; want++ {
		count, resetAt, err := store.Increment(ctx, "u1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
		assert.WithinDuration(t, time.Now().Add(time.Minute), resetAt, 5*time.Second)
	}

	count, _, err = store.Peek(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, _, err = store.Increment(ctx, "u2", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "keys are independent")

	require.NoError(t, store.Reset(ctx, "u2"))
	count, _, err = store.Peek(ctx, "u2")
	require.NoError(t, err)
	assert.Zero(t, count)

	_, _, err = store.Increment(ctx, "short", 50*time.Millisecond)
	require.NoError(t, err)
	expire()
	count, _, err = store.Increment(ctx, "short", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "expired window restarts")
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	storeContract(t, ratelimiter.NewMemoryStore(), func() { time.Sleep(100 * time.Millisecond) })
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	storeContract(t, ratelimiter.NewRedisStore(client, "quota:"), func() { mr.FastForward(time.Second) })
	assert.True(t, mr.Exists("quota:u1"))
}

func TestRedisStore_Unavailable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, _, err := ratelimiter.NewRedisStore(client, "").Increment(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, ratelimiter.ErrStoreFailure)
}

func TestResult(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name      string
		res       ratelimiter.Result
		allowed   bool
		remaining int64
	}{
		{"under", ratelimiter.Result{Limit: 5, Used: 2}, true, 3},
		{"at limit", ratelimiter.Result{Limit: 5, Used: 5}, true, 0},
		{"over", ratelimiter.Result{Limit: 5, Used: 6, ResetAt: now.Add(time.Minute)}, false, 0},
		{"unlimited", ratelimiter.Result{Limit: ratelimiter.Unlimited, Used: 1e6}, true, ratelimiter.Unlimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.allowed, tt.res.Allowed())
			assert.Equal(t, tt.remaining, tt.res.Remaining())
			if !tt.allowed {
				assert.Positive(t, tt.res.RetryAfter(now))
			} else {
				assert.Zero(t, tt.res.RetryAfter(now))
			}
		})
	}
}

func TestNew_InvalidWindow(t *testing.T) {
	t.Parallel()

	_, err := ratelimiter.New(ratelimiter.NewMemoryStore(), 0)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidWindow)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	lim, err := ratelimiter.New(ratelimiter.NewMemoryStore(), time.Hour)
	require.NoError(t, err)

	var denied []error
	h := ratelimiter.Middleware(lim,
		func(r *http.Request) (string, int64, bool) {
			user := r.Header.Get("X-User")
			if user == "" {
				return "", 0, false
			}
			if user == "vip" {
				return user, ratelimiter.Unlimited, true
			}
			return user, 2, true
		},
		func(w http.ResponseWriter, _ *http.Request, err error) {
			denied = append(denied, err)
			w.WriteHeader(http.StatusTooManyRequests)
		},
	)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	w := do("alice")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, do("alice").Code)

	w = do("alice")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	require.Len(t, denied, 1)
	assert.True(t, errors.Is(denied[0], ratelimiter.ErrLimitExceeded))

	for range 5 {
		w = do("vip")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, http.StatusNoContent, do("").Code)

	usage, err := lim.Usage(context.Background(), "vip", ratelimiter.Unlimited)
	require.NoError(t, err)
	assert.Equal(t, int64(5), usage.Used)
}
