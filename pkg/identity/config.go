package identity

import (
	"context"
	"fmt"
)

const (
	ProviderOIDC  = "oidc"
	ProviderHS256 = "hs256"
)

type Config struct {
	Provider        string `env:"IDENTITY_PROVIDER" envDefault:"oidc"`
	IssuerURL       string `env:"IDENTITY_ISSUER_URL"`
	Audience        string `env:"IDENTITY_AUDIENCE"`
	SigningKey      string `env:"IDENTITY_SIGNING_KEY"`
	ClaimsNamespace string `env:"IDENTITY_CLAIMS_NAMESPACE"`
	DefaultTier     string `env:"IDENTITY_DEFAULT_TIER" envDefault:"free"`
}

// NewVerifier builds the Verifier selected by cfg.Provider. The OIDC
// provider performs discovery against the issuer, so ctx bounds that call.
func NewVerifier(ctx context.Context, cfg Config) (Verifier, error) {
	switch cfg.Provider {
	case ProviderOIDC:
		return NewOIDCVerifier(ctx, cfg)
	case ProviderHS256:
		return NewHS256Verifier(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
