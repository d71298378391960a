package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/backend-bits/saas-backend/pkg/logger"
)

// ErrorMapper translates a domain error to an HTTPError.
type ErrorMapper func(err error) (HTTPError, bool)

// MapError returns an ErrorMapper that matches target with errors.Is.
func MapError(target error, to HTTPError) ErrorMapper {
	return func(err error) (HTTPError, bool) {
		if errors.Is(err, target) {
			return to, true
		}
		return HTTPError{}, false
	}
}

// NewErrorHandler builds the JSON error handler. Mappers are tried in order
// before falling back to HTTPError and ValidationError detection.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		WriteErrorWith(log, mappers, ctx.ResponseWriter(), ctx.Request(), err)
	}
}

// WriteErrorWith classifies, logs and renders err. It is the non-generic core
// of NewErrorHandler for use in plain http middleware.
func WriteErrorWith(log *slog.Logger, mappers []ErrorMapper, w http.ResponseWriter, r *http.Request, err error) {
	classified := classify(err, mappers)
	status, _ := errorToDetail(classified)

	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	log.LogAttrs(r.Context(), level, "request error",
		logger.Error(err),
		slog.Int("status_code", status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		logger.Component("error_handler"),
	)

	WriteError(w, classified)
}

var bindingMappers = []ErrorMapper{
	MapError(ErrInvalidJSON, ErrBadRequest),
	MapError(ErrMissingContentType, ErrUnsupportedMedia),
	MapError(ErrUnsupportedMediaType, ErrUnsupportedMedia),
	MapError(ErrInvalidPath, ErrBadRequest),
}

func classify(err error, mappers []ErrorMapper) error {
	for _, m := range append(mappers, bindingMappers...) {
		if httpErr, ok := m(err); ok {
			return httpErr
		}
	}
	return err
}
