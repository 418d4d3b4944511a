package billing

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound   = errors.New("billing: subscription record not found")
	ErrVersionConflict  = errors.New("billing: record was modified concurrently")
	ErrCustomerConflict = errors.New("billing: customer is linked to another user")
	ErrInvalidEvent     = errors.New("billing: invalid event")
	ErrCommitExhausted  = errors.New("billing: too many concurrent modifications")
)

// Reasons carried by PolicyError.
var (
	ErrTrialNotAllowed      = errors.New("trial is only available once to users who never subscribed")
	ErrNotCancelable        = errors.New("no active subscription to cancel")
	ErrNoSubscription       = errors.New("user has no subscription")
	ErrAccessNotLapsed      = errors.New("access has not lapsed")
	ErrStaleEvent           = errors.New("event is older than the last applied event")
	ErrTransitionNotAllowed = errors.New("transition not allowed")
)

// PolicyError is a rejected transition. Nothing was written.
type PolicyError struct {
	Event  Kind
	State  State
	Reason error
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("billing: %s rejected in state %s: %v", e.Event, e.State, e.Reason)
}

func (e *PolicyError) Unwrap() error { return e.Reason }

// IsPolicyViolation reports whether err is a *PolicyError.
func IsPolicyViolation(err error) bool {
	var pe *PolicyError
	return errors.As(err, &pe)
}
