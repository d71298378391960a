package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/backend-bits/saas-backend/pkg/logger"
	"github.com/backend-bits/saas-backend/svc/access"
)

const maxPollInterval = time.Second

// Ledger creates, verifies and resolves payment orders.
type Ledger struct {
	store   Store
	locker  Locker
	gateway Gateway
	catalog *Catalog

	flight singleflight.Group

	log            *slog.Logger
	metrics        Metrics
	now            func() time.Time
	gatewayTimeout time.Duration
	claimTTL       time.Duration
	pollInterval   time.Duration
}

func NewLedger(store Store, locker Locker, gateway Gateway, catalog *Catalog, opts ...Option) *Ledger {
	l := &Ledger{
		store:          store,
		locker:         locker,
		gateway:        gateway,
		catalog:        catalog,
		log:            slog.Default(),
		metrics:        noopMetrics{},
		now:            time.Now,
		gatewayTimeout: 10 * time.Second,
		claimTTL:       30 * time.Second,
		pollInterval:   100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.claimTTL < l.gatewayTimeout {
		l.claimTTL = 2 * l.gatewayTimeout
	}
	return l
}

// Catalog returns the plan catalog.
func (l *Ledger) Catalog() *Catalog {
	return l.catalog
}

// CreateOrder registers a pending order for planCode. Nothing is stored
// unless the gateway call succeeds.
func (l *Ledger) CreateOrder(ctx context.Context, planCode, userID string) (*Order, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	plan, err := l.catalog.Plan(planCode)
	if err != nil {
		return nil, err
	}
	if plan.Free() {
		return nil, fmt.Errorf("%w: %q is free and cannot be ordered", ErrUnknownPlan, planCode)
	}

	gwOrder, err := l.callCreate(ctx, OrderRequest{
		Amount:   plan.Price,
		PriceID:  plan.PriceID,
		UserID:   userID,
		PlanCode: plan.Code,
		Receipt:  uuid.NewString(),
	})
	if err != nil {
		l.log.WarnContext(ctx, "gateway order creation failed",
			logger.PlanCode(plan.Code),
			logger.UserID(userID),
			logger.Error(err),
		)
		return nil, err
	}

	now := l.now().UTC()
	order := &Order{
		ID:          gwOrder.ID,
		UserID:      userID,
		PlanCode:    plan.Code,
		Amount:      plan.Price,
		Status:      StatusPending,
		CheckoutURL: gwOrder.CheckoutURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := l.store.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("billing: persist order: %w", err)
	}

	l.metrics.OrderCreated(plan.Code)
	l.log.InfoContext(ctx, "order created",
		logger.OrderID(order.ID),
		logger.PlanCode(plan.Code),
		logger.UserID(userID),
	)
	return order, nil
}

// VerifyOrder confirms payment for orderID and returns the granted tier.
// Verified orders answer from the store; failed orders stay failed.
// Concurrent calls for one order share a single gateway check. A caller
// whose ctx ends stops waiting; the shared check runs on to completion.
func (l *Ledger) VerifyOrder(ctx context.Context, orderID string, c PaymentConfirmation) (access.Tier, error) {
	if orderID == "" {
		return "", ErrOrderNotFound
	}
	c.OrderID = orderID

	// Detach from the first caller's cancellation: its result is shared.
	shared := context.WithoutCancel(ctx)
	ch := l.flight.DoChan(orderID, func() (any, error) {
		return l.verify(shared, c)
	})

	select {
	case <-ctx.Done():
		return "", gatewayError("verify", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(access.Tier), nil
	}
}

func (l *Ledger) verify(ctx context.Context, c PaymentConfirmation) (access.Tier, error) {
	order, err := l.store.Get(ctx, c.OrderID)
	if err != nil {
		return "", err
	}
	if order.Status.Terminal() {
		return l.settled(order)
	}

	release, err := l.locker.Acquire(ctx, claimKey(c.OrderID), l.claimTTL)
	if errors.Is(err, ErrLockHeld) {
		return l.awaitSettled(ctx, c.OrderID)
	}
	if err != nil {
		return "", fmt.Errorf("billing: claim order: %w", err)
	}
	defer release()

	// Someone may have committed between the read and the claim.
	if order, err = l.store.Get(ctx, c.OrderID); err != nil {
		return "", err
	}
	if order.Status.Terminal() {
		return l.settled(order)
	}

	ok, err := l.callVerify(ctx, c)
	if err != nil {
		l.log.WarnContext(ctx, "payment verification inconclusive, order stays pending",
			logger.OrderID(c.OrderID),
			logger.Error(err),
		)
		return "", err
	}

	to := StatusFailed
	if ok {
		to = StatusVerified
	}
	final, err := l.commit(ctx, order, to, c.PaymentID)
	if err != nil {
		return "", err
	}
	return l.settled(final)
}

// commit moves a pending order to a terminal status. When another writer
// got there first the stored outcome wins.
func (l *Ledger) commit(ctx context.Context, order *Order, to Status, paymentID string) (*Order, error) {
	err := l.store.Transition(ctx, order.ID, StatusPending, to, paymentID)
	switch {
	case err == nil:
		l.metrics.OrderSettled(string(to))
		l.log.InfoContext(ctx, "order settled",
			logger.OrderID(order.ID),
			logger.PlanCode(order.PlanCode),
			logger.UserID(order.UserID),
			slog.String("status", string(to)),
		)
		settled := *order
		settled.Status = to
		if paymentID != "" {
			settled.PaymentID = paymentID
		}
		return &settled, nil

	case errors.Is(err, ErrStatusConflict):
		final, getErr := l.store.Get(ctx, order.ID)
		if getErr != nil {
			return nil, getErr
		}
		if final.Status != to {
			l.log.WarnContext(ctx, "order settled concurrently with a different outcome",
				logger.OrderID(order.ID),
				slog.String("attempted", string(to)),
				slog.String("stored", string(final.Status)),
			)
		}
		return final, nil

	case errors.Is(err, ErrTerminalStatus):
		l.log.ErrorContext(ctx, "attempted to overwrite terminal order status",
			logger.OrderID(order.ID),
			logger.Error(err),
		)
		return nil, err

	default:
		return nil, fmt.Errorf("billing: commit order: %w", err)
	}
}

// settled maps a terminal order to its outcome.
func (l *Ledger) settled(order *Order) (access.Tier, error) {
	switch order.Status {
	case StatusVerified:
		return l.tierFor(order)
	case StatusFailed:
		return "", ErrVerificationFailed
	default:
		return "", ErrOrderNotVerified
	}
}

func (l *Ledger) tierFor(order *Order) (access.Tier, error) {
	plan, err := l.catalog.Plan(order.PlanCode)
	if err != nil {
		return "", err
	}
	return plan.Tier, nil
}

// awaitSettled polls with backoff while another owner holds the claim. It
// gives up after the gateway timeout with a retryable GatewayError. ctx is
// the detached shared context, so only the deadline bounds the wait.
func (l *Ledger) awaitSettled(ctx context.Context, orderID string) (access.Tier, error) {
	deadline := l.now().Add(l.gatewayTimeout)
	wait := l.pollInterval

	for {
		time.Sleep(wait)

		order, err := l.store.Get(ctx, orderID)
		if err != nil {
			return "", err
		}
		if order.Status.Terminal() {
			return l.settled(order)
		}
		if !l.now().Before(deadline) {
			return "", gatewayError("verify", ErrClaimTimeout)
		}
		wait = min(wait*2, maxPollInterval)
	}
}

// GetGrantedTier returns the tier a verified order grants.
func (l *Ledger) GetGrantedTier(ctx context.Context, orderID string) (access.Tier, error) {
	order, err := l.store.Get(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.Status != StatusVerified {
		return "", ErrOrderNotVerified
	}
	return l.tierFor(order)
}

// Order returns a single order.
func (l *Ledger) Order(ctx context.Context, orderID string) (*Order, error) {
	return l.store.Get(ctx, orderID)
}

// Orders lists a user's orders, newest first.
func (l *Ledger) Orders(ctx context.Context, userID string) ([]*Order, error) {
	return l.store.ListByUser(ctx, userID)
}

// HighestGrantedTier returns the best tier among the user's verified orders,
// or the lowest tier of the ordering when there are none.
func (l *Ledger) HighestGrantedTier(ctx context.Context, userID string) (access.Tier, error) {
	order := l.catalog.Ordering()
	best := order.Lowest()

	orders, err := l.store.ListByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, o := range orders {
		if o.Status != StatusVerified {
			continue
		}
		tier, err := l.tierFor(o)
		if err != nil {
			l.log.WarnContext(ctx, "verified order references unknown plan",
				logger.OrderID(o.ID),
				logger.PlanCode(o.PlanCode),
			)
			continue
		}
		best = order.Max(best, tier)
	}
	return best, nil
}

func (l *Ledger) callCreate(ctx context.Context, req OrderRequest) (*GatewayOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, l.gatewayTimeout)
	defer cancel()

	start := time.Now()
	out, err := l.gateway.CreateOrder(ctx, req)
	l.metrics.GatewayCall("create_order", outcome(err), time.Since(start))
	if err != nil {
		return nil, gatewayError("create_order", err)
	}
	if out == nil || out.ID == "" {
		return nil, gatewayError("create_order", errors.New("gateway returned no order id"))
	}
	return out, nil
}

func (l *Ledger) callVerify(ctx context.Context, c PaymentConfirmation) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.gatewayTimeout)
	defer cancel()

	start := time.Now()
	ok, err := l.gateway.VerifyPayment(ctx, c)
	l.metrics.GatewayCall("verify_payment", outcome(err), time.Since(start))
	if err != nil {
		return false, gatewayError("verify_payment", err)
	}
	return ok, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrGatewayUnavailable):
		return "circuit_open"
	default:
		return "error"
	}
}

func claimKey(orderID string) string {
	return "order:" + orderID
}
