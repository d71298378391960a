package access

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthorization is matched by every AuthorizationError.
	ErrAuthorization = errors.New("access.insufficient_tier")

	ErrInvalidOrdering = errors.New("access.invalid_ordering")
)

// Denial reasons reported by AuthorizationError.
const (
	ReasonInsufficientTier    = "insufficient_tier"
	ReasonUnknownCallerTier   = "unknown_caller_tier"
	ReasonUnknownRequiredTier = "unknown_required_tier"
)

// AuthorizationError reports an authenticated caller whose tier does not
// satisfy the route.
type AuthorizationError struct {
	Caller   Tier
	Required Tier
	Reason   string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: tier %q does not satisfy %q (%s)", ErrAuthorization, e.Caller, e.Required, e.Reason)
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrAuthorization }
