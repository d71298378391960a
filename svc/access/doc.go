// Package access decides whether a caller's subscription tier satisfies a
// route's required minimum tier.
//
// Tiers are ranked by an explicit Ordering configured at startup:
//
//	order := access.MustOrdering(access.Free, access.Starter, access.Pro)
//	gate := access.NewGate(order)
//	gate.Allow(access.Starter, access.Pro) // false
//
// Tiers outside the ordering never pass: an unknown caller tier is denied and
// an unknown required tier denies everyone.
//
// RequireTier enforces the gate as chi-compatible middleware and Reconcile
// clamps the token's tier to what the order ledger has actually granted.
package access
