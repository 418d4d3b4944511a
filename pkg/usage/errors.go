package usage

import "errors"

var (
	// ErrQuotaExceeded is returned when a free user reached today's limit.
	ErrQuotaExceeded = errors.New("usage: daily quota exceeded")
	ErrInvalidDay    = errors.New("usage: invalid day")
	ErrEmptyUserID   = errors.New("usage: user id is required")
)
