package anomaly

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/subsync/pkg/resolver"
)

// Kind classifies an anomaly.
type Kind string

const (
	KindUnresolvedIdentity Kind = "unresolved_identity"
	KindIdentityMismatch   Kind = "identity_mismatch"
	KindInvalidEvent       Kind = "invalid_event"
)

// Anomaly is one event that was not applied. It carries the redacted
// event summary, never the raw payload.
type Anomaly struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	Provider   string            `json:"provider"`
	EventID    string            `json:"event_id"`
	EventType  string            `json:"event_type"`
	Identity   resolver.Identity `json:"identity"`
	Reason     string            `json:"reason"`
	Summary    map[string]string `json:"summary,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// New fills ID and OccurredAt and records err as the reason.
func New(kind Kind, err error, now time.Time) Anomaly {
	a := Anomaly{ID: uuid.NewString(), Kind: kind, OccurredAt: now.UTC()}
	if err != nil {
		a.Reason = err.Error()
	}
	return a
}

// Reporter makes an anomaly visible to operators.
type Reporter interface {
	Report(ctx context.Context, a Anomaly) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, a Anomaly) error

func (f ReporterFunc) Report(ctx context.Context, a Anomaly) error { return f(ctx, a) }

type multi []Reporter

// Multi reports to every reporter and joins their errors. Nil reporters are
// skipped.
func Multi(reporters ...Reporter) Reporter {
	out := make(multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) Report(ctx context.Context, a Anomaly) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
