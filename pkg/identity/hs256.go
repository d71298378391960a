package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const hs256Header = `{"alg":"HS256","typ":"JWT"}`

// HS256Verifier verifies and issues HMAC-SHA256 signed tokens.
type HS256Verifier struct {
	key      []byte
	issuer   string
	audience string
	mapper   claimsMapper
	now      func() time.Time
}

func NewHS256Verifier(cfg Config) (*HS256Verifier, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	return &HS256Verifier{
		key:      []byte(cfg.SigningKey),
		issuer:   cfg.IssuerURL,
		audience: cfg.Audience,
		mapper:   claimsMapper{namespace: cfg.ClaimsNamespace, defaultTier: cfg.DefaultTier},
		now:      time.Now,
	}, nil
}

// Issue signs c with the configured key. The token carries iss and aud when
// they are configured so that Verify accepts it.
func (v *HS256Verifier) Issue(c Claims, ttl time.Duration) (string, error) {
	now := v.now()
	payload := map[string]any{
		"sub":               c.Subject,
		"subscription_tier": c.Tier,
		"is_paid":           c.Paid,
		"iat":               now.Unix(),
		"exp":               now.Add(ttl).Unix(),
	}
	if c.Email != "" {
		payload["email"] = c.Email
	}
	if c.Name != "" {
		payload["name"] = c.Name
	}
	if v.issuer != "" {
		payload["iss"] = v.issuer
	}
	if v.audience != "" {
		payload["aud"] = v.audience
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("identity: marshal claims: %w", err)
	}

	unsigned := encodeSegment([]byte(hs256Header)) + "." + encodeSegment(body)
	return unsigned + "." + v.sign(unsigned), nil
}

func (v *HS256Verifier) Verify(_ context.Context, token string) (Claims, error) {
	if token == "" {
		return Claims{}, authError(ErrMissingToken)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, authError(ErrInvalidToken)
	}

	unsigned := parts[0] + "." + parts[1]
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(v.sign(unsigned))) != 1 {
		return Claims{}, authError(ErrInvalidSignature)
	}

	var header struct {
		Alg string `json:"alg"`
	}
	if err := decodeSegment(parts[0], &header); err != nil {
		return Claims{}, authError(err)
	}
	if header.Alg != "HS256" {
		return Claims{}, authError(ErrUnexpectedSigningMethod)
	}

	var raw map[string]any
	if err := decodeSegment(parts[1], &raw); err != nil {
		return Claims{}, authError(err)
	}
	if err := v.validateRegistered(raw); err != nil {
		return Claims{}, authError(err)
	}

	claims, err := v.mapper.toClaims(raw)
	if err != nil {
		return Claims{}, authError(err)
	}
	return claims, nil
}

func (v *HS256Verifier) validateRegistered(raw map[string]any) error {
	now := v.now().Unix()

	if exp, ok := raw["exp"].(float64); ok && now > int64(exp) {
		return ErrExpiredToken
	}
	if nbf, ok := raw["nbf"].(float64); ok && now < int64(nbf) {
		return ErrInvalidToken
	}
	if v.issuer != "" {
		if iss, _ := raw["iss"].(string); iss != v.issuer {
			return fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
		}
	}
	if v.audience != "" && !hasAudience(raw["aud"], v.audience) {
		return fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	return nil
}

func hasAudience(aud any, want string) bool {
	switch a := aud.(type) {
	case string:
		return a == want
	case []any:
		for _, item := range a {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func (v *HS256Verifier) sign(unsigned string) string {
	h := hmac.New(sha256.New, v.key)
	h.Write([]byte(unsigned))
	return encodeSegment(h.Sum(nil))
}

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeSegment(s string, v any) error {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}
