package access_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backend-bits/saas-backend/svc/access"
)

func TestGate_AllowMatchesRank(t *testing.T) {
	t.Parallel()

	order := access.DefaultOrdering()
	gate := access.NewGate(order)
	tiers := order.Tiers()

	for _, caller := range tiers {
		for _, required := range tiers {
			cr, _ := order.Rank(caller)
			rr, _ := order.Rank(required)
			assert.Equal(t, cr >= rr, gate.Allow(caller, required), "caller=%s required=%s", caller, required)
		}
	}
}

func TestGate_Check(t *testing.T) {
	t.Parallel()

	gate := access.NewGate(access.DefaultOrdering())

	tests := []struct {
		name     string
		caller   access.Tier
		required access.Tier
		reason   string
	}{
		{"pro satisfies pro", access.Pro, access.Pro, ""},
		{"pro satisfies starter", access.Pro, access.Starter, ""},
		{"starter below pro", access.Starter, access.Pro, access.ReasonInsufficientTier},
		{"free below starter", access.Free, access.Starter, access.ReasonInsufficientTier},
		{"unknown caller", "enterprise", access.Free, access.ReasonUnknownCallerTier},
		{"empty caller", "", access.Free, access.ReasonUnknownCallerTier},
		{"unknown required fails closed", access.Pro, "platinum", access.ReasonUnknownRequiredTier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := gate.Check(tt.caller, tt.required)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, access.ErrAuthorization))
			var authzErr *access.AuthorizationError
			require.ErrorAs(t, err, &authzErr)
			assert.Equal(t, tt.reason, authzErr.Reason)
			assert.Equal(t, tt.caller, authzErr.Caller)
			assert.Equal(t, tt.required, authzErr.Required)
		})
	}
}

func TestOrdering(t *testing.T) {
	t.Parallel()

	t.Run("parse", func(t *testing.T) {
		t.Parallel()
		o, err := access.ParseOrdering(" Free, starter ,PRO,")
		require.NoError(t, err)
		assert.Equal(t, []access.Tier{access.Free, access.Starter, access.Pro}, o.Tiers())
		assert.Equal(t, access.Free, o.Lowest())
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		_, err := access.NewOrdering()
		assert.ErrorIs(t, err, access.ErrInvalidOrdering)
		_, err = access.NewOrdering(access.Free, access.Pro, access.Free)
		assert.ErrorIs(t, err, access.ErrInvalidOrdering)
		assert.Panics(t, func() { access.MustOrdering("") })
	})

	t.Run("custom order changes decisions", func(t *testing.T) {
		t.Parallel()
		gate := access.NewGate(access.MustOrdering("free", "team", "business"))
		assert.True(t, gate.Allow("business", "team"))
		assert.False(t, gate.Allow("team", "business"))
		assert.False(t, gate.Allow(access.Pro, access.Free))
	})

	t.Run("min and max", func(t *testing.T) {
		t.Parallel()
		o := access.DefaultOrdering()
		assert.Equal(t, access.Starter, o.Min(access.Pro, access.Starter))
		assert.Equal(t, access.Free, o.Min(access.Free, access.Pro))
		assert.Equal(t, access.Pro, o.Max(access.Starter, access.Pro))
		assert.Equal(t, access.Tier("gold"), o.Min("gold", access.Pro))
		assert.Equal(t, access.Pro, o.Max("gold", access.Pro))
	})
}
