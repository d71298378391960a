package api

import (
	"context"
	"time"

	"github.com/backend-bits/saas-backend/pkg/handler"
	"github.com/backend-bits/saas-backend/pkg/identity"
	"github.com/backend-bits/saas-backend/pkg/ratelimiter"
	"github.com/backend-bits/saas-backend/svc/access"
	"github.com/backend-bits/saas-backend/svc/billing"
)

// claimsFrom returns the authenticated caller.
func claimsFrom(ctx context.Context) (identity.Claims, error) {
	claims, ok := identity.ClaimsFromContext(ctx)
	if !ok {
		return identity.Claims{}, &identity.AuthenticationError{Cause: identity.ErrMissingToken}
	}
	return claims, nil
}

func (s *server) profile(ctx handler.Context, _ struct{}) handler.Response {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(map[string]any{"user": claims})
}

type usageStats struct {
	RequestsToday int64      `json:"requests_today"`
	DailyLimit    int64      `json:"daily_limit"`
	Remaining     int64      `json:"remaining"`
	ResetAt       *time.Time `json:"reset_at,omitempty"`
}

func newUsageStats(res ratelimiter.Result) usageStats {
	u := usageStats{
		RequestsToday: res.Used,
		DailyLimit:    res.Limit,
		Remaining:     res.Remaining(),
	}
	if !res.ResetAt.IsZero() {
		u.ResetAt = &res.ResetAt
	}
	return u
}

type dashboardResponse struct {
	User      identity.Claims `json:"user"`
	Dashboard struct {
		SubscriptionTier access.Tier `json:"subscription_tier"`
		IsPaid           bool        `json:"is_paid"`
		Orders           int         `json:"orders"`
		UsageStats       usageStats  `json:"usage_stats"`
	} `json:"dashboard"`
}

func (s *server) dashboard(ctx handler.Context, _ struct{}) handler.Response {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return handler.Error(err)
	}
	tier := access.ParseTier(claims.Tier)

	orders, err := s.ledger.Orders(ctx, claims.Subject)
	if err != nil {
		return handler.Error(err)
	}
	usage, err := s.usage(ctx, claims.Subject, tier)
	if err != nil {
		return handler.Error(err)
	}

	var resp dashboardResponse
	resp.User = claims
	resp.Dashboard.SubscriptionTier = tier
	resp.Dashboard.IsPaid = claims.Paid
	resp.Dashboard.Orders = len(orders)
	resp.Dashboard.UsageStats = newUsageStats(usage)
	return handler.JSON(resp)
}

func (s *server) premiumContent(ctx handler.Context, _ struct{}) handler.Response {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(map[string]any{
		"content":        "This is premium content!",
		"user_tier":      access.ParseTier(claims.Tier),
		"access_granted": true,
	})
}

type analyticsResponse struct {
	SubscriptionTier access.Tier    `json:"subscription_tier"`
	PlanLimits       billing.Limits `json:"plan_limits"`
	Usage            usageStats     `json:"usage"`
}

func (s *server) analytics(ctx handler.Context, _ struct{}) handler.Response {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return handler.Error(err)
	}
	tier := access.ParseTier(claims.Tier)

	usage, err := s.usage(ctx, claims.Subject, tier)
	if err != nil {
		return handler.Error(err)
	}

	return handler.JSON(analyticsResponse{
		SubscriptionTier: tier,
		PlanLimits:       s.ledger.Catalog().Limits(tier),
		Usage:            newUsageStats(usage),
	})
}
