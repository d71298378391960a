// Package identity turns bearer tokens into typed Claims.
//
// Two Verifier implementations are provided: OIDCVerifier validates RS256
// tokens against an issuer's JWKS through go-oidc, and HS256Verifier checks
// shared-secret tokens for development and service-to-service use.
// Middleware runs the verifier once per request and stores the resulting
// Claims in the request context; nothing past the middleware sees raw token
// data.
package identity
