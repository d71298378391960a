package billing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/backend-bits/saas-backend/pkg/logger"
	"github.com/backend-bits/saas-backend/svc/access"
	"github.com/backend-bits/saas-backend/svc/billing"
)

var validSig = billing.PaymentConfirmation{PaymentID: "pay_1", Signature: "valid"}

func testCatalog(t *testing.T) *billing.Catalog {
	t.Helper()

	cat, err := billing.NewCatalog(context.Background(), billing.NewMemorySource(
		billing.Plan{Code: "starter", Tier: access.Starter, Price: billing.Money{Amount: 900, Currency: "USD"}, PriceID: "pri_starter"},
		billing.Plan{Code: "pro", Tier: access.Pro, Price: billing.Money{Amount: 2900, Currency: "USD"}, PriceID: "pri_pro"},
	), access.DefaultOrdering())
	require.NoError(t, err)
	return cat
}

type ledgerFixture struct {
	ledger *billing.Ledger
	store  *billing.MemoryStore
	locker *billing.MemoryLocker
	gw     *mockGateway
}

func newLedgerFixture(t *testing.T, opts ...billing.Option) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{
		store:  billing.NewMemoryStore(),
		locker: billing.NewMemoryLocker(),
		gw:     &mockGateway{},
	}
	opts = append([]billing.Option{billing.WithLogger(logger.Discard())}, opts...)
	f.ledger = billing.NewLedger(f.store, f.locker, f.gw, testCatalog(t), opts...)
	t.Cleanup(func() { f.gw.AssertExpectations(t) })
	return f
}

func (f *ledgerFixture) createOrder(t *testing.T, id, plan, user string) *billing.Order {
	t.Helper()

	f.gw.On("CreateOrder", mock.Anything, mock.MatchedBy(func(r billing.OrderRequest) bool {
		return r.PlanCode == plan && r.UserID == user
	})).Return(&billing.GatewayOrder{ID: id}, nil).Once()

	o, err := f.ledger.CreateOrder(context.Background(), plan, user)
	require.NoError(t, err)
	return o
}

func TestLedger_Scenario(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	ctx := context.Background()

	f.gw.On("CreateOrder", mock.Anything, mock.MatchedBy(func(r billing.OrderRequest) bool {
		return r.PlanCode == "pro" && r.PriceID == "pri_pro" && r.UserID == "u1" &&
			r.Amount == billing.Money{Amount: 2900, Currency: "USD"} && r.Receipt != ""
	})).Return(&billing.GatewayOrder{ID: "gw-1", CheckoutURL: "https://pay.example/gw-1"}, nil).Once()

	order, err := f.ledger.CreateOrder(ctx, "pro", "u1")
	require.NoError(t, err)
	assert.Equal(t, "gw-1", order.ID)
	assert.Equal(t, billing.StatusPending, order.Status)
	assert.Equal(t, "https://pay.example/gw-1", order.CheckoutURL)

	_, err = f.ledger.GetGrantedTier(ctx, "gw-1")
	assert.ErrorIs(t, err, billing.ErrOrderNotVerified)

	f.gw.On("VerifyPayment", mock.Anything, billing.PaymentConfirmation{OrderID: "gw-1", PaymentID: "pay_1", Signature: "valid"}).
		Return(true, nil).Once()

	tier, err := f.ledger.VerifyOrder(ctx, "gw-1", validSig)
	require.NoError(t, err)
	assert.Equal(t, access.Pro, tier)

	tier, err = f.ledger.GetGrantedTier(ctx, "gw-1")
	require.NoError(t, err)
	assert.Equal(t, access.Pro, tier)

	tier, err = f.ledger.VerifyOrder(ctx, "gw-1", validSig)
	require.NoError(t, err)
	assert.Equal(t, access.Pro, tier)

	f.gw.AssertNumberOfCalls(t, "VerifyPayment", 1)

	stored, err := f.ledger.Order(ctx, "gw-1")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusVerified, stored.Status)
	assert.Equal(t, "pay_1", stored.PaymentID)
}

func TestLedger_VerifyUnknownOrder(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)

	_, err := f.ledger.VerifyOrder(context.Background(), "gw-unknown", validSig)
	assert.ErrorIs(t, err, billing.ErrOrderNotFound)

	_, err = f.ledger.VerifyOrder(context.Background(), "", validSig)
	assert.ErrorIs(t, err, billing.ErrOrderNotFound)

	_, err = f.ledger.GetGrantedTier(context.Background(), "gw-unknown")
	assert.ErrorIs(t, err, billing.ErrOrderNotFound)

	f.gw.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)
}

func TestLedger_CreateOrder_Rejections(t *testing.T) {
	t.Parallel()

	t.Run("unknown plan persists nothing", func(t *testing.T) {
		t.Parallel()
		f := newLedgerFixture(t)

		_, err := f.ledger.CreateOrder(context.Background(), "enterprise", "u1")
		assert.ErrorIs(t, err, billing.ErrUnknownPlan)

		orders, err := f.ledger.Orders(context.Background(), "u1")
		require.NoError(t, err)
		assert.Empty(t, orders)
		f.gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()
		f := newLedgerFixture(t)

		_, err := f.ledger.CreateOrder(context.Background(), "pro", "")
		assert.ErrorIs(t, err, billing.ErrMissingUserID)
	})

	t.Run("gateway error persists nothing", func(t *testing.T) {
		t.Parallel()
		f := newLedgerFixture(t)
		f.gw.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, errors.New("502 from provider")).Once()

		_, err := f.ledger.CreateOrder(context.Background(), "pro", "u1")
		assert.ErrorIs(t, err, billing.ErrGateway)

		var gwErr *billing.GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, "create_order", gwErr.Op)

		orders, err := f.ledger.Orders(context.Background(), "u1")
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("gateway timeout persists nothing", func(t *testing.T) {
		t.Parallel()
		f := newLedgerFixture(t, billing.WithGatewayTimeout(20*time.Millisecond))
		f.gw.On("CreateOrder", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.DeadlineExceeded).Once()

		_, err := f.ledger.CreateOrder(context.Background(), "starter", "u1")
		assert.ErrorIs(t, err, billing.ErrGateway)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		orders, err := f.ledger.Orders(context.Background(), "u1")
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("gateway returns no id", func(t *testing.T) {
		t.Parallel()
		f := newLedgerFixture(t)
		f.gw.On("CreateOrder", mock.Anything, mock.Anything).Return(&billing.GatewayOrder{}, nil).Once()

		_, err := f.ledger.CreateOrder(context.Background(), "pro", "u1")
		assert.ErrorIs(t, err, billing.ErrGateway)
	})
}

func TestLedger_CreateOrder_FreePlan(t *testing.T) {
	t.Parallel()

	cat, err := billing.NewCatalog(context.Background(), billing.NewMemorySource(billing.DefaultPlans()...), nil)
	require.NoError(t, err)

	gw := &mockGateway{}
	l := billing.NewLedger(billing.NewMemoryStore(), billing.NewMemoryLocker(), gw, cat, billing.WithLogger(logger.Discard()))

	_, err = l.CreateOrder(context.Background(), "free", "u1")
	assert.ErrorIs(t, err, billing.ErrUnknownPlan)
	gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestLedger_VerifyMismatchIsTerminal(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	ctx := context.Background()
	f.createOrder(t, "gw-2", "starter", "u1")

	f.gw.On("VerifyPayment", mock.Anything, mock.Anything).Return(false, nil).Once()

	_, err := f.ledger.VerifyOrder(ctx, "gw-2", billing.PaymentConfirmation{PaymentID: "pay_x", Signature: "forged"})
	assert.ErrorIs(t, err, billing.ErrVerificationFailed)

	// A later valid signature cannot revive a failed order.
	_, err = f.ledger.VerifyOrder(ctx, "gw-2", validSig)
	assert.ErrorIs(t, err, billing.ErrVerificationFailed)

	_, err = f.ledger.GetGrantedTier(ctx, "gw-2")
	assert.ErrorIs(t, err, billing.ErrOrderNotVerified)

	f.gw.AssertNumberOfCalls(t, "VerifyPayment", 1)
}

func TestLedger_VerifyTimeoutLeavesPending(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t, billing.WithGatewayTimeout(20*time.Millisecond))
	ctx := context.Background()
	f.createOrder(t, "gw-3", "pro", "u1")

	f.gw.On("VerifyPayment", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(false, context.DeadlineExceeded).Once()

	_, err := f.ledger.VerifyOrder(ctx, "gw-3", validSig)
	assert.ErrorIs(t, err, billing.ErrGateway)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	order, err := f.ledger.Order(ctx, "gw-3")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPending, order.Status)

	f.gw.On("VerifyPayment", mock.Anything, mock.Anything).Return(true, nil).Once()

	tier, err := f.ledger.VerifyOrder(ctx, "gw-3", validSig)
	require.NoError(t, err)
	assert.Equal(t, access.Pro, tier)
}

func TestLedger_ConcurrentVerify(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	f.createOrder(t, "gw-4", "pro", "u1")

	release := make(chan struct{})
	f.gw.On("VerifyPayment", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(true, nil).Once()

	const n = 16
	var (
		wg    sync.WaitGroup
		tiers = make([]access.Tier, n)
		errs  = make([]error, n)
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tiers[i], errs[i] = f.ledger.VerifyOrder(context.Background(), "gw-4", validSig)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, access.Pro, tiers[i])
	}
	f.gw.AssertNumberOfCalls(t, "VerifyPayment", 1)
}

func TestLedger_ConcurrentVerifyAcrossInstances(t *testing.T) {
	t.Parallel()

	store := billing.NewMemoryStore()
	locker := billing.NewMemoryLocker()
	gw := &mockGateway{}
	cat := testCatalog(t)

	newLedger := func() *billing.Ledger {
		return billing.NewLedger(store, locker, gw, cat,
			billing.WithLogger(logger.Discard()),
			billing.WithClaimPollInterval(5*time.Millisecond),
			billing.WithGatewayTimeout(2*time.Second),
		)
	}
	a, b := newLedger(), newLedger()

	gw.On("CreateOrder", mock.Anything, mock.Anything).Return(&billing.GatewayOrder{ID: "gw-5"}, nil).Once()
	_, err := a.CreateOrder(context.Background(), "starter", "u1")
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	gw.On("VerifyPayment", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(true, nil).Once()

	type result struct {
		tier access.Tier
		err  error
	}
	first := make(chan result, 1)
	go func() {
		tier, err := a.VerifyOrder(context.Background(), "gw-5", validSig)
		first <- result{tier, err}
	}()
	<-entered

	second := make(chan result, 1)
	go func() {
		tier, err := b.VerifyOrder(context.Background(), "gw-5", validSig)
		second <- result{tier, err}
	}()

	time.Sleep(30 * time.Millisecond)
	close(release)

	r1, r2 := <-first, <-second
	require.NoError(t, r1.err)
	require.NoError(t, r2.err)
	assert.Equal(t, access.Starter, r1.tier)
	assert.Equal(t, r1.tier, r2.tier)
	gw.AssertNumberOfCalls(t, "VerifyPayment", 1)
	gw.AssertExpectations(t)
}

func TestLedger_ClaimHeldTimesOut(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t,
		billing.WithGatewayTimeout(40*time.Millisecond),
		billing.WithClaimPollInterval(5*time.Millisecond),
	)
	f.createOrder(t, "gw-6", "pro", "u1")

	release, err := f.locker.Acquire(context.Background(), "order:gw-6", time.Minute)
	require.NoError(t, err)
	defer release()

	_, err = f.ledger.VerifyOrder(context.Background(), "gw-6", validSig)
	assert.ErrorIs(t, err, billing.ErrGateway)
	assert.ErrorIs(t, err, billing.ErrClaimTimeout)
	f.gw.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)
}

func TestLedger_CallerCancelStopsWaiting(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t,
		billing.WithGatewayTimeout(5*time.Second),
		billing.WithClaimPollInterval(5*time.Millisecond),
	)
	f.createOrder(t, "gw-7", "pro", "u1")

	release, err := f.locker.Acquire(context.Background(), "order:gw-7", time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = f.ledger.VerifyOrder(ctx, "gw-7", validSig)
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, err, billing.ErrGateway)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The detached wait picks up the claim owner's commit.
	require.NoError(t, f.store.Transition(context.Background(), "gw-7", billing.StatusPending, billing.StatusVerified, "pay_owner"))
	release()

	tier, err := f.ledger.VerifyOrder(context.Background(), "gw-7", validSig)
	require.NoError(t, err)
	assert.Equal(t, access.Pro, tier)
	f.gw.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)
}

func TestLedger_PlanRemovedBeforeVerify(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	f.createOrder(t, "gw-8", "pro", "u1")

	starterOnly, err := billing.NewCatalog(context.Background(), billing.NewMemorySource(
		billing.Plan{Code: "starter", Tier: access.Starter, Price: billing.Money{Amount: 900, Currency: "USD"}, PriceID: "pri_starter"},
	), access.DefaultOrdering())
	require.NoError(t, err)
	shrunk := billing.NewLedger(f.store, f.locker, f.gw, starterOnly, billing.WithLogger(logger.Discard()))

	f.gw.On("VerifyPayment", mock.Anything, mock.Anything).Return(true, nil).Once()

	_, err = shrunk.VerifyOrder(context.Background(), "gw-8", validSig)
	assert.ErrorIs(t, err, billing.ErrUnknownPlan)

	_, err = shrunk.GetGrantedTier(context.Background(), "gw-8")
	assert.ErrorIs(t, err, billing.ErrUnknownPlan)

	// The payment itself was confirmed; the gateway is not asked again.
	stored, err := f.ledger.Order(context.Background(), "gw-8")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusVerified, stored.Status)

	_, err = shrunk.VerifyOrder(context.Background(), "gw-8", validSig)
	assert.ErrorIs(t, err, billing.ErrUnknownPlan)
	f.gw.AssertNumberOfCalls(t, "VerifyPayment", 1)

	tier, err := f.ledger.GetGrantedTier(context.Background(), "gw-8")
	require.NoError(t, err)
	assert.Equal(t, access.Pro, tier)
}

func TestLedger_HighestGrantedTier(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	ctx := context.Background()

	tier, err := f.ledger.HighestGrantedTier(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, access.Free, tier)

	f.createOrder(t, "gw-s", "starter", "u1")
	f.createOrder(t, "gw-p", "pro", "u1")

	f.gw.On("VerifyPayment", mock.Anything, mock.MatchedBy(func(c billing.PaymentConfirmation) bool {
		return c.OrderID == "gw-s"
	})).Return(true, nil).Once()
	_, err = f.ledger.VerifyOrder(ctx, "gw-s", validSig)
	require.NoError(t, err)

	tier, err = f.ledger.HighestGrantedTier(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, access.Starter, tier, "pending pro order grants nothing")

	f.gw.On("VerifyPayment", mock.Anything, mock.MatchedBy(func(c billing.PaymentConfirmation) bool {
		return c.OrderID == "gw-p"
	})).Return(true, nil).Once()
	_, err = f.ledger.VerifyOrder(ctx, "gw-p", validSig)
	require.NoError(t, err)

	tier, err = f.ledger.HighestGrantedTier(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, access.Pro, tier)

	tier, err = f.ledger.HighestGrantedTier(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, access.Free, tier)
}

type recordingMetrics struct {
	mu       sync.Mutex
	created  []string
	settled  []string
	outcomes []string
}

func (m *recordingMetrics) OrderCreated(plan string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, plan)
}

func (m *recordingMetrics) OrderSettled(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settled = append(m.settled, result)
}

func (m *recordingMetrics) GatewayCall(op, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, op+":"+outcome)
}

func TestLedger_Metrics(t *testing.T) {
	t.Parallel()

	rec := &recordingMetrics{}
	f := newLedgerFixture(t, billing.WithMetrics(rec))
	f.createOrder(t, "gw-7", "pro", "u1")

	f.gw.On("VerifyPayment", mock.Anything, mock.Anything).Return(false, errors.New("boom")).Once()
	_, err := f.ledger.VerifyOrder(context.Background(), "gw-7", validSig)
	require.Error(t, err)

	f.gw.On("VerifyPayment", mock.Anything, mock.Anything).Return(true, nil).Once()
	_, err = f.ledger.VerifyOrder(context.Background(), "gw-7", validSig)
	require.NoError(t, err)

	assert.Equal(t, []string{"pro"}, rec.created)
	assert.Equal(t, []string{"verified"}, rec.settled)
	assert.Equal(t, []string{"create_order:ok", "verify_payment:error", "verify_payment:ok"}, rec.outcomes)
}
