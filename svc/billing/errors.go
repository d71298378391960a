package billing

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPlan         = errors.New("billing: unknown plan")
	ErrOrderNotFound       = errors.New("billing: order not found")
	ErrOrderNotVerified    = errors.New("billing: order not verified")
	ErrVerificationFailed  = errors.New("billing: payment verification failed")
	ErrGateway             = errors.New("billing: payment gateway error")
	ErrMissingUserID       = errors.New("billing: user id is required")
	ErrDuplicateOrder      = errors.New("billing: order already exists")
	ErrWebhookVerification = errors.New("billing: webhook signature verification failed")

	// ErrTerminalStatus signals an attempt to move an order out of a
	// terminal status. It indicates a bug, never a client error.
	ErrTerminalStatus = errors.New("billing: order status is terminal")
	// ErrStatusConflict is returned by Store.Transition when the order is no
	// longer in the expected status.
	ErrStatusConflict = errors.New("billing: order status changed concurrently")
	// ErrLockHeld is returned by Locker.Acquire when another owner holds the key.
	ErrLockHeld = errors.New("billing: lock held by another owner")

	ErrInvalidCatalog     = errors.New("billing: invalid plan catalog")
	ErrFailedToLoadPlans  = errors.New("billing: failed to load plans")
	ErrGatewayUnavailable = errors.New("billing: gateway circuit open")
	ErrPaymentIncomplete  = errors.New("billing: payment not completed yet")
	ErrClaimTimeout       = errors.New("billing: timed out waiting for concurrent verification")

	// ErrUnknownPaymentAttempt is inconclusive: the gateway does not list the
	// client's payment id, which may be a typo or not yet visible.
	ErrUnknownPaymentAttempt = errors.New("billing: payment attempt not found on transaction")

	ErrMissingAPIKey        = errors.New("billing: gateway API key is required")
	ErrMissingWebhookSecret = errors.New("billing: gateway webhook secret is required")
	ErrInvalidEnvironment   = errors.New("billing: invalid gateway environment")
	ErrMissingPriceID       = errors.New("billing: gateway price id is required")
)

// GatewayError wraps a failed or timed out gateway call. The cause may hold
// provider response bodies and must only be logged.
type GatewayError struct {
	Op    string
	Cause error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrGateway, e.Op, e.Cause)
}

func (e *GatewayError) Unwrap() error { return e.Cause }

func (e *GatewayError) Is(target error) bool { return target == ErrGateway }

func gatewayError(op string, cause error) error {
	var gwErr *GatewayError
	if errors.As(cause, &gwErr) {
		return cause
	}
	return &GatewayError{Op: op, Cause: cause}
}
