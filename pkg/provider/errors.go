package provider

import "errors"

var (
	// ErrSignature means the delivery could not be authenticated.
	ErrSignature = errors.New("provider: invalid webhook signature")
	// ErrMalformed means the payload is not a valid event envelope.
	ErrMalformed = errors.New("provider: malformed webhook payload")
	// ErrMissingField means a field required to apply the event is absent.
	ErrMissingField = errors.New("provider: required field missing from event")

	ErrUnknownRegistration   = errors.New("provider: unknown webhook registration")
	ErrDuplicateRegistration = errors.New("provider: webhook registration already exists")
	ErrEmptyRegistration     = errors.New("provider: webhook registration token is empty")

	// ErrAPI wraps failures of calls made to the provider.
	ErrAPI = errors.New("provider: billing provider request failed")
)
