package identity

import "strings"

// Claims is the authenticated caller, validated once at the trust boundary.
type Claims struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Tier    string `json:"subscription_tier"`
	Paid    bool   `json:"is_paid"`
}

// claimsMapper extracts Claims from a decoded token payload. Custom claims
// may be namespaced (Auth0 requires a URL prefix for non-standard claims).
type claimsMapper struct {
	namespace   string
	defaultTier string
}

func (m claimsMapper) lookup(raw map[string]any, name string) (any, bool) {
	if m.namespace != "" {
		if v, ok := raw[strings.TrimSuffix(m.namespace, "/")+"/"+name]; ok {
			return v, true
		}
	}
	v, ok := raw[name]
	return v, ok
}

func (m claimsMapper) toClaims(raw map[string]any) (Claims, error) {
	sub, _ := raw["sub"].(string)
	if sub == "" {
		return Claims{}, ErrMissingSubject
	}

	c := Claims{Subject: sub, Tier: m.defaultTier}
	c.Email, _ = raw["email"].(string)
	c.Name, _ = raw["name"].(string)

	if v, ok := m.lookup(raw, "subscription_tier"); ok {
		if tier, ok := v.(string); ok && tier != "" {
			c.Tier = strings.ToLower(tier)
		}
	}
	if v, ok := m.lookup(raw, "is_paid"); ok {
		c.Paid, _ = v.(bool)
	}

	return c, nil
}
