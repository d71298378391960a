package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryStore keeps windows in process memory. Expired windows are swept
// lazily on write.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]window
	now     func() time.Time
	writes  int
}

const sweepEvery = 1024

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]window), now: time.Now}
}

func (s *MemoryStore) Increment(_ context.Context, key string, d time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.writes++
	if s.writes%sweepEvery == 0 {
		s.sweep(now)
	}

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = window{resetAt: now.Add(d)}
	}
	w.count++
	s.windows[key] = w
	return w.count, w.resetAt, nil
}

func (s *MemoryStore) Peek(_ context.Context, key string) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !s.now().Before(w.resetAt) {
		return 0, time.Time{}, nil
	}
	return w.count, w.resetAt, nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for k, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, k)
		}
	}
}
