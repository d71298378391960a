package access

import (
	"fmt"
	"slices"
	"strings"
)

// Tier is a subscription tier name.
type Tier string

const (
	Free    Tier = "free"
	Starter Tier = "starter"
	Pro     Tier = "pro"
)

func (t Tier) String() string { return string(t) }

// ParseTier normalizes s into a Tier. It does not check membership in any
// ordering.
func ParseTier(s string) Tier {
	return Tier(strings.ToLower(strings.TrimSpace(s)))
}

// Ordering is an explicit total order over tiers, lowest first. It is
// immutable after construction.
type Ordering struct {
	tiers []Tier
	rank  map[Tier]int
}

// NewOrdering builds an ordering from tiers listed lowest first.
func NewOrdering(tiers ...Tier) (*Ordering, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: no tiers", ErrInvalidOrdering)
	}

	rank := make(map[Tier]int, len(tiers))
	for i, t := range tiers {
		if t == "" {
			return nil, fmt.Errorf("%w: empty tier at position %d", ErrInvalidOrdering, i)
		}
		if _, dup := rank[t]; dup {
			return nil, fmt.Errorf("%w: duplicate tier %q", ErrInvalidOrdering, t)
		}
		rank[t] = i
	}

	return &Ordering{tiers: slices.Clone(tiers), rank: rank}, nil
}

// MustOrdering is NewOrdering that panics on error.
func MustOrdering(tiers ...Tier) *Ordering {
	o, err := NewOrdering(tiers...)
	if err != nil {
		panic(err)
	}
	return o
}

// ParseOrdering reads a comma separated list such as "free,starter,pro".
func ParseOrdering(s string) (*Ordering, error) {
	var tiers []Tier
	for part := range strings.SplitSeq(s, ",") {
		if t := ParseTier(part); t != "" {
			tiers = append(tiers, t)
		}
	}
	return NewOrdering(tiers...)
}

// DefaultOrdering is free < starter < pro.
func DefaultOrdering() *Ordering {
	return MustOrdering(Free, Starter, Pro)
}

// Rank returns t's position and whether t is part of the ordering.
func (o *Ordering) Rank(t Tier) (int, bool) {
	r, ok := o.rank[t]
	return r, ok
}

func (o *Ordering) Known(t Tier) bool {
	_, ok := o.rank[t]
	return ok
}

// Lowest returns the bottom tier.
func (o *Ordering) Lowest() Tier {
	return o.tiers[0]
}

// Tiers returns the tiers lowest first.
func (o *Ordering) Tiers() []Tier {
	return slices.Clone(o.tiers)
}

// Max returns the higher of two known tiers. Unknown tiers lose.
func (o *Ordering) Max(a, b Tier) Tier {
	ra, okA := o.rank[a]
	rb, okB := o.rank[b]
	switch {
	case !okA:
		return b
	case !okB:
		return a
	case rb > ra:
		return b
	default:
		return a
	}
}

// Min returns the lower of two known tiers. An unknown tier is returned
// unchanged so that the gate still rejects it.
func (o *Ordering) Min(a, b Tier) Tier {
	ra, okA := o.rank[a]
	rb, okB := o.rank[b]
	switch {
	case !okA:
		return a
	case !okB:
		return b
	case rb < ra:
		return b
	default:
		return a
	}
}
