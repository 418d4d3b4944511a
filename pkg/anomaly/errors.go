package anomaly

import "errors"

var (
	ErrInvalidConfig  = errors.New("anomaly: invalid config")
	ErrArchiveFailed  = errors.New("anomaly: failed to archive anomaly")
	ErrAlertFailed    = errors.New("anomaly: failed to send alert")
	ErrAccessDenied   = errors.New("anomaly: access denied to archive bucket")
	ErrBucketNotFound = errors.New("anomaly: archive bucket not found")
)
