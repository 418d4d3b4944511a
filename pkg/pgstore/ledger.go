package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/subsync/pkg/ledger"
)

// LedgerStore is a ledger.Store on the processed_events table.
type LedgerStore struct {
	db  DB
	now func() time.Time
}

var _ ledger.Store = (*LedgerStore)(nil)

// NewLedgerStore returns a ledger on the processed_events table.
func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db, now: time.Now}
}

// IsProcessed reports whether a row exists for eventID.
func (s *LedgerStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1)`, eventID,
	).Scan(&exists)
	if err != nil {
		return false, errors.Join(ledger.ErrStore, err)
	}
	return exists, nil
}

// MarkProcessed inserts e. A row already present for the event is kept.
func (s *LedgerStore) MarkProcessed(ctx context.Context, e ledger.Entry) error {
	e, err := ledger.Prepare(e, s.now())
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO processed_events
			(event_id, event_type, provider, session_id, user_id, outcome, summary, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING`,
		e.EventID, e.EventType, e.Provider, e.SessionID, e.UserID,
		e.Outcome, e.Summary, e.ProcessedAt.UTC(),
	)
	if err != nil {
		return errors.Join(ledger.ErrStore, err)
	}
	return nil
}
