package identity

import "errors"

// ErrAuthentication is matched by every AuthenticationError.
var ErrAuthentication = errors.New("identity: authentication failed")

var (
	ErrMissingToken            = errors.New("identity: missing bearer token")
	ErrInvalidToken            = errors.New("identity: invalid token")
	ErrExpiredToken            = errors.New("identity: token is expired")
	ErrInvalidSignature        = errors.New("identity: invalid signature")
	ErrUnexpectedSigningMethod = errors.New("identity: unexpected signing method")
	ErrMissingSubject          = errors.New("identity: token has no subject")
	ErrMissingSigningKey       = errors.New("identity: missing signing key")
	ErrMissingIssuer           = errors.New("identity: missing issuer url")
	ErrUnknownProvider         = errors.New("identity: unknown provider")
)

// AuthenticationError reports that a caller could not be authenticated.
// Cause is logged but never rendered to clients.
type AuthenticationError struct {
	Cause error
}

func (e *AuthenticationError) Error() string {
	if e.Cause == nil {
		return ErrAuthentication.Error()
	}
	return ErrAuthentication.Error() + ": " + e.Cause.Error()
}

func (e *AuthenticationError) Unwrap() error { return e.Cause }

func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

func authError(cause error) error {
	return &AuthenticationError{Cause: cause}
}
