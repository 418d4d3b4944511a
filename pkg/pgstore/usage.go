package pgstore

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/subsync/pkg/pg"
	"github.com/dmitrymomot/subsync/pkg/usage"
)

// UsageCounter is a usage.Counter on the usage_counters table.
type UsageCounter struct {
	db DB
}

var _ usage.Counter = (*UsageCounter)(nil)

// NewUsageCounter returns a usage.Counter on the usage_counters table.
func NewUsageCounter(db DB) *UsageCounter {
	return &UsageCounter{db: db}
}

// Get returns the count of userID on day, zero without a row.
func (c *UsageCounter) Get(ctx context.Context, userID string, day usage.Day) (int, error) {
	d, err := day.Time()
	if err != nil {
		return 0, err
	}
	var n int
	err = c.db.QueryRow(ctx,
		`SELECT images FROM usage_counters WHERE user_id = $1 AND day = $2`, userID, d,
	).Scan(&n)
	if pg.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("pgstore: get usage: %w", err)
	}
	return n, nil
}

// Increment upserts the row of userID and day and returns the new count.
func (c *UsageCounter) Increment(ctx context.Context, userID string, day usage.Day) (int, error) {
	d, err := day.Time()
	if err != nil {
		return 0, err
	}
	var n int
	err = c.db.QueryRow(ctx,
		`INSERT INTO usage_counters (user_id, day, images) VALUES ($1, $2, 1)
		ON CONFLICT (user_id, day) DO UPDATE SET images = usage_counters.images + 1
		RETURNING images`,
		userID, d,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("pgstore: increment usage: %w", err)
	}
	return n, nil
}

// Reset deletes the row of userID and day.
func (c *UsageCounter) Reset(ctx context.Context, userID string, day usage.Day) error {
	d, err := day.Time()
	if err != nil {
		return err
	}
	if _, err := c.db.Exec(ctx,
		`UPDATE usage_counters SET images = 0 WHERE user_id = $1 AND day = $2`, userID, d,
	); err != nil {
		return fmt.Errorf("pgstore: reset usage: %w", err)
	}
	return nil
}
