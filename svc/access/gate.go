package access

// Gate allows a caller tier when it ranks at or above the required tier.
type Gate struct {
	order *Ordering
}

func NewGate(order *Ordering) *Gate {
	if order == nil {
		order = DefaultOrdering()
	}
	return &Gate{order: order}
}

// Ordering returns the ordering the gate ranks against.
func (g *Gate) Ordering() *Ordering {
	return g.order
}

// Allow reports whether caller satisfies required.
func (g *Gate) Allow(caller, required Tier) bool {
	return g.Check(caller, required) == nil
}

// Check is Allow returning *AuthorizationError on denial.
func (g *Gate) Check(caller, required Tier) error {
	requiredRank, ok := g.order.Rank(required)
	if !ok {
		return &AuthorizationError{Caller: caller, Required: required, Reason: ReasonUnknownRequiredTier}
	}
	callerRank, ok := g.order.Rank(caller)
	if !ok {
		return &AuthorizationError{Caller: caller, Required: required, Reason: ReasonUnknownCallerTier}
	}
	if callerRank < requiredRank {
		return &AuthorizationError{Caller: caller, Required: required, Reason: ReasonInsufficientTier}
	}
	return nil
}
