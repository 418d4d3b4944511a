package resolver

import "errors"

var (
	// ErrUnresolved means no internal user could be attributed.
	ErrUnresolved = errors.New("resolver: identity could not be attributed to a user")
	// ErrIdentityMismatch means the linked user and the metadata user differ.
	ErrIdentityMismatch = errors.New("resolver: customer is linked to a different user than the metadata names")
)

// IsResolutionFailure reports whether err is an attribution failure rather
// than a directory error.
func IsResolutionFailure(err error) bool {
	return errors.Is(err, ErrUnresolved) || errors.Is(err, ErrIdentityMismatch)
}
