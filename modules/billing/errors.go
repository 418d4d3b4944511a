package billing

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/subsync/handler"
	domain "github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/provider"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
	"github.com/dmitrymomot/subsync/pkg/usage"
)

var (
	errMissingUser     = handler.ErrUnauthorized.WithMessage("missing authenticated user")
	errPayloadTooLarge = handler.ErrRequestTooLarge.WithMessage("webhook payload too large")
)

type mapping struct {
	target error
	http   handler.HTTPError
}

// mappings are checked in order; the first match wins.
var mappings = []mapping{
	{reconcile.ErrInFlight, handler.NewHTTPError(http.StatusConflict, "event_in_flight")},
	{reconcile.ErrUnresolved, handler.NewHTTPError(http.StatusUnprocessableEntity, "unresolved_event")},
	{provider.ErrUnknownRegistration, handler.NewHTTPError(http.StatusNotFound, "unknown_registration")},
	{provider.ErrSignature, handler.NewHTTPError(http.StatusBadRequest, "invalid_signature")},
	{provider.ErrMalformed, handler.NewHTTPError(http.StatusBadRequest, "malformed_payload")},
	{domain.ErrTrialNotAllowed, handler.NewHTTPError(http.StatusConflict, "trial_not_allowed")},
	{domain.ErrNotCancelable, handler.NewHTTPError(http.StatusConflict, "not_cancelable")},
	{domain.ErrCommitExhausted, handler.NewHTTPError(http.StatusConflict, "concurrent_modification")},
	{reconcile.ErrAlreadySubscribed, handler.NewHTTPError(http.StatusConflict, "already_subscribed")},
	{usage.ErrQuotaExceeded, handler.NewHTTPError(http.StatusTooManyRequests, "quota_exceeded")},
	{reconcile.ErrInvalidUserID, errMissingUser},
	{reconcile.ErrNoBillingProvider, handler.NewHTTPError(http.StatusNotImplemented, "billing_not_configured")},
	{reconcile.ErrUsageNotConfigured, handler.NewHTTPError(http.StatusNotImplemented, "usage_not_configured")},
	{reconcile.ErrProviderCancel, handler.NewHTTPError(http.StatusBadGateway, "provider_error")},
	{provider.ErrAPI, handler.NewHTTPError(http.StatusBadGateway, "provider_error")},
}

// classify maps domain errors to HTTP errors. Messages of client errors are
// the domain error text; server errors keep the generic status text.
func classify(err error) (handler.HTTPError, bool) {
	for _, m := range mappings {
		if !errors.Is(err, m.target) {
			continue
		}
		he := m.http
		if he.Message == "" && he.Code < http.StatusInternalServerError {
			he = he.WithMessage(m.target.Error())
		}
		return he, true
	}
	if domain.IsPolicyViolation(err) {
		return handler.NewHTTPError(http.StatusConflict, "transition_not_allowed").WithMessage(err.Error()), true
	}
	return handler.HTTPError{}, false
}
