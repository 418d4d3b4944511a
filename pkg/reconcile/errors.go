package reconcile

import "errors"

var (
	// ErrInFlight means another delivery of the same event is being processed.
	ErrInFlight = errors.New("reconcile: event is already being processed")
	// ErrUnresolved means the event could not be attributed to a user. It
	// was reported as an anomaly and not applied.
	ErrUnresolved = errors.New("reconcile: event could not be attributed to a user")

	ErrNoBillingProvider  = errors.New("reconcile: no billing provider configured")
	ErrAlreadySubscribed  = errors.New("reconcile: user already has an active paid subscription")
	ErrMissingDependency  = errors.New("reconcile: missing dependency")
	ErrProviderCancel     = errors.New("reconcile: provider refused to cancel the subscription")
	ErrInvalidUserID      = errors.New("reconcile: user id is required")
	ErrUsageNotConfigured = errors.New("reconcile: usage tracking is not configured")
)
