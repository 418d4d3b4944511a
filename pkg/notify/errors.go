package notify

import "errors"

var (
	ErrPublish      = errors.New("notify: failed to publish message")
	ErrRelayMessage = errors.New("notify: malformed relay message")
)
