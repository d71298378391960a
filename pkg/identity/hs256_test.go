package identity_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backend-bits/saas-backend/pkg/identity"
)

func newHS256(t *testing.T, cfg identity.Config) *identity.HS256Verifier {
	t.Helper()
	if cfg.SigningKey == "" {
		cfg.SigningKey = "test-signing-key-0123456789abcdef"
	}
	if cfg.DefaultTier == "" {
		cfg.DefaultTier = "free"
	}
	v, err := identity.NewHS256Verifier(cfg)
	require.NoError(t, err)
	return v
}

func TestHS256Verifier_RoundTrip(t *testing.T) {
	t.Parallel()

	v := newHS256(t, identity.Config{IssuerURL: "https://auth.example.com/", Audience: "saas-api"})
	token, err := v.Issue(identity.Claims{Subject: "auth0|u1", Tier: "Pro", Paid: true, Email: "u1@example.com"}, time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "auth0|u1", claims.Subject)
	assert.Equal(t, "pro", claims.Tier)
	assert.True(t, claims.Paid)
	assert.Equal(t, "u1@example.com", claims.Email)
}

func TestHS256Verifier_Rejects(t *testing.T) {
	t.Parallel()

	v := newHS256(t, identity.Config{Audience: "saas-api"})
	other := newHS256(t, identity.Config{SigningKey: "another-key-that-does-not-match", Audience: "saas-api"})
	wrongAud := newHS256(t, identity.Config{Audience: "someone-else"})

	valid, err := v.Issue(identity.Claims{Subject: "u1", Tier: "free"}, time.Hour)
	require.NoError(t, err)
	expired, err := v.Issue(identity.Claims{Subject: "u1", Tier: "free"}, -time.Minute)
	require.NoError(t, err)
	forged, err := other.Issue(identity.Claims{Subject: "u1", Tier: "pro"}, time.Hour)
	require.NoError(t, err)
	audMismatch, err := wrongAud.Issue(identity.Claims{Subject: "u1"}, time.Hour)
	require.NoError(t, err)
	noSubject, err := v.Issue(identity.Claims{Tier: "pro"}, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		token string
		cause error
	}{
		{"empty", "", identity.ErrMissingToken},
		{"malformed", "abc.def", identity.ErrInvalidToken},
		{"expired", expired, identity.ErrExpiredToken},
		{"wrong key", forged, identity.ErrInvalidSignature},
		{"tampered payload", tampered, identity.ErrInvalidSignature},
		{"audience mismatch", audMismatch, identity.ErrInvalidToken},
		{"no subject", noSubject, identity.ErrMissingSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := v.Verify(context.Background(), tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, identity.ErrAuthentication)
			assert.ErrorIs(t, err, tt.cause)

			var authErr *identity.AuthenticationError
			assert.ErrorAs(t, err, &authErr)
		})
	}
}

func TestHS256Verifier_DefaultTier(t *testing.T) {
	t.Parallel()

	v := newHS256(t, identity.Config{DefaultTier: "free"})
	token, err := v.Issue(identity.Claims{Subject: "u2"}, time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "free", claims.Tier)
	assert.False(t, claims.Paid)
}

func TestNewVerifier(t *testing.T) {
	t.Parallel()

	v, err := identity.NewVerifier(context.Background(), identity.Config{Provider: identity.ProviderHS256, SigningKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &identity.HS256Verifier{}, v)

	_, err = identity.NewVerifier(context.Background(), identity.Config{Provider: identity.ProviderHS256})
	assert.ErrorIs(t, err, identity.ErrMissingSigningKey)

	_, err = identity.NewVerifier(context.Background(), identity.Config{Provider: identity.ProviderOIDC})
	assert.ErrorIs(t, err, identity.ErrMissingIssuer)

	_, err = identity.NewVerifier(context.Background(), identity.Config{Provider: "saml"})
	assert.ErrorIs(t, err, identity.ErrUnknownProvider)
}
