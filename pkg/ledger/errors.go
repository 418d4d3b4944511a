package ledger

import "errors"

var (
	ErrEmptyEventID = errors.New("ledger: event id is required")
	ErrStore        = errors.New("ledger: store failure")
)
