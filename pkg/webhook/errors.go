package webhook

import "errors"

var (
	ErrMissingSecret       = errors.New("webhook: secret is required")
	ErrMalformedHeader     = errors.New("webhook: malformed signature header")
	ErrSignatureMismatch   = errors.New("webhook: signature mismatch")
	ErrTimestampOutOfRange = errors.New("webhook: timestamp outside tolerance")
)
