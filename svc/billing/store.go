package billing

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Store persists orders. Implementations must make Transition atomic: it
// succeeds only while the stored status equals from.
type Store interface {
	// Create inserts a new order. ErrDuplicateOrder if the id exists.
	Create(ctx context.Context, o *Order) error
	// Get returns the order or ErrOrderNotFound.
	Get(ctx context.Context, id string) (*Order, error)
	// Transition moves the order from -> to and records paymentID.
	// ErrStatusConflict when the stored status is no longer from,
	// ErrTerminalStatus when from -> to is not a legal move.
	Transition(ctx context.Context, id string, from, to Status, paymentID string) error
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
}

// MemoryStore is a mutex-guarded Store for tests and single-process use.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]Order
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]Order), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, o *Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("billing: create order: empty id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, o.ID)
	}
	s.orders[o.ID] = *o
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (s *MemoryStore) Transition(_ context.Context, id string, from, to Status, paymentID string) error {
	if err := checkTransition(from, to); err != nil {
		return fmt.Errorf("%w: %s -> %s", err, from, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if o.Status != from {
		return ErrStatusConflict
	}

	o.Status = to
	if paymentID != "" {
		o.PaymentID = paymentID
	}
	o.UpdatedAt = s.now().UTC()
	s.orders[id] = o
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Order
	for _, o := range s.orders {
		if o.UserID == userID {
			o := o
			out = append(out, &o)
		}
	}
	slices.SortFunc(out, func(a, b *Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
