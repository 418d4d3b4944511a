package statemachine

import (
	"errors"
	"fmt"
)

// ErrNoTransitionAvailable indicates no rule exists for the state/event pair.
type ErrNoTransitionAvailable struct {
	State string
	Event string
}

func (e *ErrNoTransitionAvailable) Error() string {
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.State, e.Event)
}

// ErrTransitionRejected indicates rules exist but a guard blocked every one.
// Guard names the guard that rejected the last candidate rule.
type ErrTransitionRejected struct {
	State string
	Event string
	Guard string
}

func (e *ErrTransitionRejected) Error() string {
	return fmt.Sprintf("transition from state '%s' for event '%s' was rejected by guard '%s'", e.State, e.Event, e.Guard)
}

func IsNoTransitionAvailableError(err error) bool {
	var e *ErrNoTransitionAvailable
	return errors.As(err, &e)
}

func IsTransitionRejectedError(err error) bool {
	var e *ErrTransitionRejected
	return errors.As(err, &e)
}

// RejectedBy returns the name of the guard that rejected err's transition.
func RejectedBy(err error) (string, bool) {
	var e *ErrTransitionRejected
	if errors.As(err, &e) {
		return e.Guard, true
	}
	return "", false
}
