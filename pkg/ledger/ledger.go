package ledger

import (
	"context"
	"time"
)

// Outcome is how the pipeline finished with an event.
type Outcome string

const (
	// OutcomeApplied means the event changed or confirmed a record.
	OutcomeApplied Outcome = "applied"
	// OutcomeIgnored means the event type carries no domain meaning.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeRejected means the event violated subscription policy.
	OutcomeRejected Outcome = "rejected"
)

// Entry is one processed event.
type Entry struct {
	EventID     string
	EventType   string
	Provider    string
	SessionID   string
	UserID      string
	Summary     map[string]string
	Outcome     Outcome
	ProcessedAt time.Time
}

// Store is the idempotency ledger.
type Store interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	// MarkProcessed inserts e once. An existing entry for e.EventID is not
	// an error and is left unchanged.
	MarkProcessed(ctx context.Context, e Entry) error
}

// Prepare validates e and fills ProcessedAt when unset.
func Prepare(e Entry, now time.Time) (Entry, error) {
	if e.EventID == "" {
		return e, ErrEmptyEventID
	}
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = now
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeApplied
	}
	return e, nil
}
