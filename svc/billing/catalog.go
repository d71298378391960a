package billing

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/backend-bits/saas-backend/svc/access"
)

// PlansSource loads catalog entries.
type PlansSource interface {
	Load(ctx context.Context) ([]Plan, error)
}

// Catalog is the validated, immutable plan set.
type Catalog struct {
	order  *access.Ordering
	plans  map[string]Plan
	sorted []string
}

// NewCatalog loads plans from src and validates them against order: codes
// are unique, tiers are part of the ordering, prices are non-negative and
// paid plans carry a gateway price id.
func NewCatalog(ctx context.Context, src PlansSource, order *access.Ordering) (*Catalog, error) {
	if order == nil {
		order = access.DefaultOrdering()
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: no plans", ErrInvalidCatalog)
	}

	c := &Catalog{order: order, plans: make(map[string]Plan, len(plans))}
	for _, p := range plans {
		if err := validatePlan(p, order); err != nil {
			return nil, err
		}
		if _, dup := c.plans[p.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate plan code %q", ErrInvalidCatalog, p.Code)
		}
		c.plans[p.Code] = p.clone()
		c.sorted = append(c.sorted, p.Code)
	}

	slices.SortStableFunc(c.sorted, func(a, b string) int {
		ra, _ := order.Rank(c.plans[a].Tier)
		rb, _ := order.Rank(c.plans[b].Tier)
		return ra - rb
	})

	return c, nil
}

func validatePlan(p Plan, order *access.Ordering) error {
	switch {
	case p.Code == "":
		return fmt.Errorf("%w: plan without code", ErrInvalidCatalog)
	case !order.Known(p.Tier):
		return fmt.Errorf("%w: plan %q has unknown tier %q", ErrInvalidCatalog, p.Code, p.Tier)
	case p.Price.Amount < 0:
		return fmt.Errorf("%w: plan %q has negative price", ErrInvalidCatalog, p.Code)
	case !p.Free() && p.Price.Currency == "":
		return fmt.Errorf("%w: plan %q has no currency", ErrInvalidCatalog, p.Code)
	case !p.Free() && p.PriceID == "":
		return fmt.Errorf("%w: paid plan %q has no gateway price id", ErrInvalidCatalog, p.Code)
	}
	return nil
}

// Plan returns the plan for code or ErrUnknownPlan.
func (c *Catalog) Plan(code string) (Plan, error) {
	p, ok := c.plans[code]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, code)
	}
	return p.clone(), nil
}

// Plans returns all plans ordered by tier, lowest first.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.sorted))
	for _, code := range c.sorted {
		out = append(out, c.plans[code].clone())
	}
	return out
}

// Ordering returns the tier ordering the catalog was validated against.
func (c *Catalog) Ordering() *access.Ordering {
	return c.order
}

// Limits returns the limits of the first plan granting tier, falling back to
// the lowest tier's plan when no plan grants it.
func (c *Catalog) Limits(tier access.Tier) Limits {
	for _, code := range c.sorted {
		if p := c.plans[code]; p.Tier == tier {
			return p.clone().Limits
		}
	}
	if len(c.sorted) == 0 {
		return Limits{}
	}
	return c.plans[c.sorted[0]].clone().Limits
}
