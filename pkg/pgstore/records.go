package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/pg"
)

const recordColumns = `user_id, plan, status, trial_started_at, trial_ends_at, paid_until,
	past_due_since, COALESCE(external_customer_id, ''), external_subscription_id,
	bonus_granted, credits, last_event_at, version, updated_at`

// RecordStore is a billing.Store on the subscriptions table.
type RecordStore struct {
	db  DB
	now func() time.Time
}

var _ billing.Store = (*RecordStore)(nil)

// NewRecordStore returns a billing.Store on the subscriptions table.
func NewRecordStore(db DB) *RecordStore {
	return &RecordStore{db: db, now: time.Now}
}

// Create inserts the default record for userID unless a row exists and
// returns the stored row.
func (s *RecordStore) Create(ctx context.Context, userID string) (billing.Record, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO subscriptions (user_id, plan, status, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, billing.PlanFree, billing.StatusNone, s.now().UTC(),
	)
	if err != nil {
		return billing.Record{}, fmt.Errorf("pgstore: create subscription: %w", err)
	}
	return s.Get(ctx, userID)
}

// Get returns the record of userID or billing.ErrRecordNotFound.
func (s *RecordStore) Get(ctx context.Context, userID string) (billing.Record, error) {
	row := s.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM subscriptions WHERE user_id = $1`, userID)
	rec, err := scanRecord(row)
	if err != nil {
		return billing.Record{}, fmt.Errorf("pgstore: get subscription: %w", err)
	}
	return rec, nil
}

// FindByCustomer returns the record linked to customerID or
// billing.ErrRecordNotFound.
func (s *RecordStore) FindByCustomer(ctx context.Context, customerID string) (billing.Record, error) {
	row := s.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM subscriptions WHERE external_customer_id = $1`, customerID)
	rec, err := scanRecord(row)
	if err != nil {
		return billing.Record{}, fmt.Errorf("pgstore: find subscription by customer: %w", err)
	}
	return rec, nil
}

// LinkCustomer sets the external customer id of userID when it is unset
// or already equal. Any other case fails with billing.ErrCustomerConflict.
func (s *RecordStore) LinkCustomer(ctx context.Context, userID, customerID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE subscriptions
		SET external_customer_id = $2, version = version + 1, updated_at = $3
		WHERE user_id = $1 AND external_customer_id IS NULL`,
		userID, customerID, s.now().UTC(),
	)
	if pg.IsDuplicateKeyError(err) {
		return billing.ErrCustomerConflict
	}
	if err != nil {
		return fmt.Errorf("pgstore: link customer: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	rec, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if rec.ExternalCustomerID != customerID {
		return billing.ErrCustomerConflict
	}
	return nil
}

// Swap writes next if the row is still at prev.Version and returns the
// stored row with the bumped version.
func (s *RecordStore) Swap(ctx context.Context, prev, next billing.Record) (billing.Record, error) {
	updatedAt := next.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}

	row := s.db.QueryRow(ctx,
		`UPDATE subscriptions SET
			plan = $3,
			status = $4,
			trial_started_at = $5,
			trial_ends_at = $6,
			paid_until = $7,
			past_due_since = $8,
			external_customer_id = NULLIF($9, ''),
			external_subscription_id = $10,
			bonus_granted = $11,
			credits = $12,
			last_event_at = $13,
			version = version + 1,
			updated_at = $14
		WHERE user_id = $1 AND version = $2
		RETURNING `+recordColumns,
		prev.UserID, prev.Version,
		next.Plan, next.Status,
		next.TrialStartedAt, next.TrialEndsAt, next.PaidUntil, next.PastDueSince,
		next.ExternalCustomerID, next.ExternalSubscriptionID,
		next.BonusGranted, next.Credits, next.LastEventAt,
		updatedAt.UTC(),
	)
	saved, err := scanRecord(row)
	switch {
	case err == nil:
		return saved, nil
	case pg.IsDuplicateKeyError(err):
		return billing.Record{}, billing.ErrCustomerConflict
	case errors.Is(err, billing.ErrRecordNotFound):
		// Either the user is gone or the version moved on.
		if _, getErr := s.Get(ctx, prev.UserID); getErr != nil {
			return billing.Record{}, getErr
		}
		return billing.Record{}, billing.ErrVersionConflict
	default:
		return billing.Record{}, fmt.Errorf("pgstore: swap subscription: %w", err)
	}
}

func scanRecord(row pgx.Row) (billing.Record, error) {
	var r billing.Record
	err := row.Scan(
		&r.UserID, &r.Plan, &r.Status,
		&r.TrialStartedAt, &r.TrialEndsAt, &r.PaidUntil, &r.PastDueSince,
		&r.ExternalCustomerID, &r.ExternalSubscriptionID,
		&r.BonusGranted, &r.Credits, &r.LastEventAt,
		&r.Version, &r.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return billing.Record{}, billing.ErrRecordNotFound
	}
	return r, err
}
