package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript opens the window on the first hit and returns {count, pttl}.
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// RedisStore shares windows across processes.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) Increment(ctx context.Context, key string, d time.Duration) (int64, time.Time, error) {
	res, err := incrScript.Run(ctx, s.client, []string{s.prefix + key}, d.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreFailure, err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("%w: unexpected script reply %v", ErrStoreFailure, res)
	}
	return res[0], s.resetAt(res[1], d), nil
}

func (s *RedisStore) Peek(ctx context.Context, key string) (int64, time.Time, error) {
	full := s.prefix + key

	pipe := s.client.Pipeline()
	get := pipe.Get(ctx, full)
	ttl := pipe.PTTL(ctx, full)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, time.Time{}, errors.Join(ErrStoreFailure, err)
	}

	count, err := get.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, time.Time{}, nil
	}
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreFailure, err)
	}
	return count, s.now().Add(ttl.Val()), nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

// resetAt converts a PTTL reply. A key without expiry (-1) gets a fresh
// window so it cannot count forever.
func (s *RedisStore) resetAt(pttl int64, d time.Duration) time.Time {
	if pttl < 0 {
		return s.now().Add(d)
	}
	return s.now().Add(time.Duration(pttl) * time.Millisecond)
}
