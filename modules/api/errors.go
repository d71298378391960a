package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/backend-bits/saas-backend/pkg/handler"
	"github.com/backend-bits/saas-backend/pkg/identity"
	"github.com/backend-bits/saas-backend/pkg/ratelimiter"
	"github.com/backend-bits/saas-backend/svc/access"
	"github.com/backend-bits/saas-backend/svc/billing"
)

// ErrUserMismatch is returned when a request names a user other than the
// authenticated subject.
var ErrUserMismatch = errors.New("api: user_id does not match the authenticated subject")

var (
	errUnauthenticated    = handler.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	errInsufficientTier   = handler.NewHTTPError(http.StatusForbidden, "insufficient_tier")
	errUserMismatch       = handler.NewHTTPError(http.StatusForbidden, "user_mismatch")
	errUnknownPlan        = handler.NewHTTPError(http.StatusBadRequest, "unknown_plan")
	errMissingUser        = handler.NewHTTPError(http.StatusBadRequest, "missing_user_id")
	errGateway            = handler.NewHTTPError(http.StatusBadGateway, "gateway_error")
	errOrderNotFound      = handler.NewHTTPError(http.StatusNotFound, "order_not_found")
	errOrderNotVerified   = handler.NewHTTPError(http.StatusConflict, "order_not_verified")
	errVerificationFailed = handler.NewHTTPError(http.StatusPaymentRequired, "verification_failed")
	errInvalidSignature   = handler.NewHTTPError(http.StatusUnauthorized, "invalid_signature")
	errRateLimited        = handler.NewHTTPError(http.StatusTooManyRequests, "rate_limited")
)

// ErrorMappers translates domain errors to HTTP errors. The first match wins.
func ErrorMappers() []handler.ErrorMapper {
	return []handler.ErrorMapper{
		handler.MapError(identity.ErrAuthentication, errUnauthenticated),
		handler.MapError(access.ErrAuthorization, errInsufficientTier),
		handler.MapError(ErrUserMismatch, errUserMismatch),
		handler.MapError(billing.ErrUnknownPlan, errUnknownPlan),
		handler.MapError(billing.ErrMissingUserID, errMissingUser),
		handler.MapError(billing.ErrGateway, errGateway),
		handler.MapError(billing.ErrOrderNotFound, errOrderNotFound),
		handler.MapError(billing.ErrOrderNotVerified, errOrderNotVerified),
		handler.MapError(billing.ErrVerificationFailed, errVerificationFailed),
		handler.MapError(billing.ErrWebhookVerification, errInvalidSignature),
		handler.MapError(ratelimiter.ErrLimitExceeded, errRateLimited),
	}
}

// errorWriter adapts the JSON error handler for plain http middleware.
func errorWriter(log *slog.Logger, mappers []handler.ErrorMapper) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		handler.WriteErrorWith(log, mappers, w, r, err)
	}
}
