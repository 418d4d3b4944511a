package pgstore_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/ledger"
	"github.com/dmitrymomot/subsync/pkg/pg"
	"github.com/dmitrymomot/subsync/pkg/pgstore"
	"github.com/dmitrymomot/subsync/pkg/usage"
)

var testPool *pgxpool.Pool

// TestMain migrates PG_CONN_URL once. Without it the database tests skip.
func TestMain(m *testing.M) {
	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	pool, err := pg.Connect(ctx, pg.Config{
		ConnectionString:  url,
		MaxConns:          10,
		MinConns:          1,
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   time.Minute,
		MaxConnLifetime:   10 * time.Minute,
		RetryAttempts:     3,
		RetryInterval:     time.Second,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := pg.Migrate(ctx, pool, pg.Config{MigrationsTable: "schema_migrations"}, pgstore.Migrations(), log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		pool.Close()
		os.Exit(1)
	}
	testPool = pool

	code := m.Run()
	pool.Close()
	os.Exit(code)
}

func db(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testPool == nil {
		t.Skip("PG_CONN_URL is not set")
	}
	return testPool
}

func TestRecordStore(t *testing.T) {
	t.Parallel()
	store := pgstore.NewRecordStore(db(t))
	ctx := context.Background()

	t.Run("create is idempotent", func(t *testing.T) {
		t.Parallel()
		id := uuid.NewString()

		first, err := store.Create(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, billing.PlanFree, first.Plan)
		assert.Equal(t, billing.StatusNone, first.Status)

		again, err := store.Create(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, first.Version, again.Version)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		_, err := store.Get(ctx, uuid.NewString())
		assert.ErrorIs(t, err, billing.ErrRecordNotFound)

		_, err = store.FindByCustomer(ctx, "cus_"+uuid.NewString())
		assert.ErrorIs(t, err, billing.ErrRecordNotFound)

		ghost := billing.NewRecord(uuid.NewString())
		_, err = store.Swap(ctx, ghost, ghost)
		assert.ErrorIs(t, err, billing.ErrRecordNotFound)
	})

	t.Run("swap with stale version conflicts", func(t *testing.T) {
		t.Parallel()
		rec, err := store.Create(ctx, uuid.NewString())
		require.NoError(t, err)

		ends := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
		next := rec
		next.Plan, next.Status = billing.PlanTrial, billing.StatusTrialing
		next.TrialEndsAt = &ends

		saved, err := store.Swap(ctx, rec, next)
		require.NoError(t, err)
		assert.Equal(t, rec.Version+1, saved.Version)
		assert.Equal(t, billing.PlanTrial, saved.Plan)
		require.NotNil(t, saved.TrialEndsAt)
		assert.True(t, ends.Equal(*saved.TrialEndsAt))

		stale := next
		stale.Plan, stale.Status = billing.PlanPaid, billing.StatusActive
		_, err = store.Swap(ctx, rec, stale)
		assert.ErrorIs(t, err, billing.ErrVersionConflict)

		got, err := store.Get(ctx, rec.UserID)
		require.NoError(t, err)
		assert.Equal(t, billing.PlanTrial, got.Plan)
		assert.Equal(t, saved.Version, got.Version)
	})

	t.Run("concurrent swaps admit one winner", func(t *testing.T) {
		t.Parallel()
		rec, err := store.Create(ctx, uuid.NewString())
		require.NoError(t, err)

		const n = 8
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				next := rec
				next.Credits = i + 1
				_, err := store.Swap(ctx, rec, next)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		won := 0
		for err := range errs {
			if err == nil {
				won++
				continue
			}
			assert.ErrorIs(t, err, billing.ErrVersionConflict)
		}
		assert.Equal(t, 1, won)
	})

	t.Run("link customer", func(t *testing.T) {
		t.Parallel()
		owner, err := store.Create(ctx, uuid.NewString())
		require.NoError(t, err)
		other, err := store.Create(ctx, uuid.NewString())
		require.NoError(t, err)
		customer := "cus_" + uuid.NewString()

		require.NoError(t, store.LinkCustomer(ctx, owner.UserID, customer))
		require.NoError(t, store.LinkCustomer(ctx, owner.UserID, customer))

		found, err := store.FindByCustomer(ctx, customer)
		require.NoError(t, err)
		assert.Equal(t, owner.UserID, found.UserID)

		err = store.LinkCustomer(ctx, other.UserID, customer)
		assert.ErrorIs(t, err, billing.ErrCustomerConflict)

		err = store.LinkCustomer(ctx, owner.UserID, "cus_"+uuid.NewString())
		assert.ErrorIs(t, err, billing.ErrCustomerConflict)

		got, err := store.Get(ctx, other.UserID)
		require.NoError(t, err)
		assert.Empty(t, got.ExternalCustomerID)
	})

	t.Run("swap onto a taken customer conflicts", func(t *testing.T) {
		t.Parallel()
		owner, err := store.Create(ctx, uuid.NewString())
		require.NoError(t, err)
		customer := "cus_" + uuid.NewString()
		require.NoError(t, store.LinkCustomer(ctx, owner.UserID, customer))

		rec, err := store.Create(ctx, uuid.NewString())
		require.NoError(t, err)
		next := rec
		next.ExternalCustomerID = customer
		_, err = store.Swap(ctx, rec, next)
		assert.ErrorIs(t, err, billing.ErrCustomerConflict)
	})
}

func TestLedgerStore(t *testing.T) {
	t.Parallel()
	pool := db(t)
	store := pgstore.NewLedgerStore(pool)
	ctx := context.Background()
	eventID := "evt_" + uuid.NewString()

	seen, err := store.IsProcessed(ctx, eventID)
	require.NoError(t, err)
	assert.False(t, seen)

	first := ledger.Entry{
		EventID:   eventID,
		EventType: "checkout.session.completed",
		Provider:  "stripe",
		UserID:    "u1",
		Outcome:   ledger.OutcomeApplied,
		Summary:   map[string]string{"plan": "paid"},
	}
	require.NoError(t, store.MarkProcessed(ctx, first))

	again := first
	again.Outcome = ledger.OutcomeRejected
	require.NoError(t, store.MarkProcessed(ctx, again))

	seen, err = store.IsProcessed(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, seen)

	var rows int
	var outcome string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*), min(outcome) FROM processed_events WHERE event_id = $1`, eventID,
	).Scan(&rows, &outcome))
	assert.Equal(t, 1, rows)
	assert.Equal(t, string(ledger.OutcomeApplied), outcome)
}

func TestUsageCounter(t *testing.T) {
	t.Parallel()
	c := pgstore.NewUsageCounter(db(t))
	ctx := context.Background()
	user := uuid.NewString()
	day := usage.Day("2026-03-01")

	n, err := c.Get(ctx, user, day)
	require.NoError(t, err)
	assert.Zero(t, n)

	const workers = 10
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Increment(ctx, user, day)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err = c.Get(ctx, user, day)
	require.NoError(t, err)
	assert.Equal(t, workers, n)

	n, err = c.Get(ctx, user, usage.Day("2026-03-02"))
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, c.Reset(ctx, user, day))
	n, err = c.Get(ctx, user, day)
	require.NoError(t, err)
	assert.Zero(t, n)
}
