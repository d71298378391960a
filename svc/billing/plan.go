package billing

import (
	"maps"

	"github.com/backend-bits/saas-backend/svc/access"
)

// Unlimited marks a limit without a ceiling.
const Unlimited int64 = -1

// Money is an amount in the smallest currency unit.
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
}

// Limits maps a usage dimension to its ceiling.
type Limits map[string]int64

// Plan is a purchasable catalog entry.
type Plan struct {
	Code    string      `json:"code" yaml:"code"`
	Name    string      `json:"name" yaml:"name"`
	Tier    access.Tier `json:"tier" yaml:"tier"`
	Price   Money       `json:"price" yaml:"price"`
	PriceID string      `json:"-" yaml:"price_id"`
	Limits  Limits      `json:"limits" yaml:"limits"`
}

// Free reports whether the plan costs nothing.
func (p Plan) Free() bool {
	return p.Price.Amount == 0
}

func (p Plan) clone() Plan {
	p.Limits = maps.Clone(p.Limits)
	return p
}

// DefaultPlans is the stock catalog: free, starter and pro.
func DefaultPlans() []Plan {
	return []Plan{
		{
			Code:  "free",
			Name:  "Free",
			Tier:  access.Free,
			Price: Money{Amount: 0, Currency: "USD"},
			Limits: Limits{
				"requests_per_day":   100,
				"requests_per_month": 1000,
				"projects":           1,
			},
		},
		{
			Code:    "starter",
			Name:    "Starter",
			Tier:    access.Starter,
			Price:   Money{Amount: 900, Currency: "USD"},
			PriceID: "pri_starter_monthly",
			Limits: Limits{
				"requests_per_day":   1000,
				"requests_per_month": 25000,
				"projects":           5,
			},
		},
		{
			Code:    "pro",
			Name:    "Pro",
			Tier:    access.Pro,
			Price:   Money{Amount: 2900, Currency: "USD"},
			PriceID: "pri_pro_monthly",
			Limits: Limits{
				"requests_per_day":   Unlimited,
				"requests_per_month": Unlimited,
				"projects":           Unlimited,
			},
		},
	}
}
