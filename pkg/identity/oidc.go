package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier validates RS256 access tokens issued by an OpenID provider.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
	mapper   claimsMapper
}

// NewOIDCVerifier discovers the provider at cfg.IssuerURL and verifies
// tokens against its JWKS. Audience is checked when configured.
func NewOIDCVerifier(ctx context.Context, cfg Config) (*OIDCVerifier, error) {
	if cfg.IssuerURL == "" {
		return nil, ErrMissingIssuer
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("identity: discover oidc provider: %w", err)
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(oidcConfig(cfg)),
		mapper:   claimsMapper{namespace: cfg.ClaimsNamespace, defaultTier: cfg.DefaultTier},
	}, nil
}

// NewOIDCVerifierWithKeySet skips discovery and verifies against keySet.
func NewOIDCVerifierWithKeySet(cfg Config, keySet oidc.KeySet) (*OIDCVerifier, error) {
	if cfg.IssuerURL == "" {
		return nil, ErrMissingIssuer
	}

	return &OIDCVerifier{
		verifier: oidc.NewVerifier(cfg.IssuerURL, keySet, oidcConfig(cfg)),
		mapper:   claimsMapper{namespace: cfg.ClaimsNamespace, defaultTier: cfg.DefaultTier},
	}, nil
}

func oidcConfig(cfg Config) *oidc.Config {
	return &oidc.Config{
		ClientID:             cfg.Audience,
		SkipClientIDCheck:    cfg.Audience == "",
		SupportedSigningAlgs: []string{oidc.RS256},
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (Claims, error) {
	if token == "" {
		return Claims{}, authError(ErrMissingToken)
	}

	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		var expired *oidc.TokenExpiredError
		if errors.As(err, &expired) {
			return Claims{}, authError(ErrExpiredToken)
		}
		return Claims{}, authError(errors.Join(ErrInvalidToken, err))
	}

	var raw map[string]any
	if err := idToken.Claims(&raw); err != nil {
		return Claims{}, authError(errors.Join(ErrInvalidToken, err))
	}

	claims, err := v.mapper.toClaims(raw)
	if err != nil {
		return Claims{}, authError(err)
	}
	return claims, nil
}
