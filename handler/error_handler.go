package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/requestid"
)

// Classifier maps domain errors to HTTP errors. ok is false for errors it
// does not know.
type Classifier func(err error) (HTTPError, bool)

// NewErrorHandler logs err with the request id and renders it as a JSON
// error. Client errors log at Warn, server errors at Error.
func NewErrorHandler(log *slog.Logger, classify Classifier) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx Context, err error) {
		r := ctx.Request()
		httpErr := Classify(err, classify)

		level := slog.LevelError
		if httpErr.Code < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.Component("http"),
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", httpErr.Code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		if renderErr := JSONError(httpErr).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.LogAttrs(r.Context(), slog.LevelError, "failed to render error",
				logger.Component("http"),
				logger.Error(renderErr),
			)
		}
	}
}

// Classify resolves err to an HTTPError: an HTTPError in the chain wins,
// then classify, then 500.
func Classify(err error, classify Classifier) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	if classify != nil {
		if he, ok := classify(err); ok {
			return he
		}
	}
	return ErrInternalServerError.WithMessage(http.StatusText(http.StatusInternalServerError))
}
