package ledger_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/ledger"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("mark then check", func(t *testing.T) {
		t.Parallel()
		s := ledger.NewMemoryStore()

		seen, err := s.IsProcessed(ctx, "evt_1")
		require.NoError(t, err)
		assert.False(t, seen)

		require.NoError(t, s.MarkProcessed(ctx, ledger.Entry{EventID: "evt_1", EventType: "invoice.paid", UserID: "u1"}))

		seen, err = s.IsProcessed(ctx, "evt_1")
		require.NoError(t, err)
		assert.True(t, seen)

		e, ok := s.Entry("evt_1")
		require.True(t, ok)
		assert.Equal(t, ledger.OutcomeApplied, e.Outcome)
		assert.False(t, e.ProcessedAt.IsZero())
	})

	t.Run("second mark keeps first entry", func(t *testing.T) {
		t.Parallel()
		s := ledger.NewMemoryStore()

		require.NoError(t, s.MarkProcessed(ctx, ledger.Entry{EventID: "evt_1", UserID: "u1"}))
		require.NoError(t, s.MarkProcessed(ctx, ledger.Entry{EventID: "evt_1", UserID: "u2"}))

		e, _ := s.Entry("evt_1")
		assert.Equal(t, "u1", e.UserID)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("concurrent marks yield one entry", func(t *testing.T) {
		t.Parallel()
		s := ledger.NewMemoryStore()

		var wg sync.WaitGroup
		for range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.MarkProcessed(ctx, ledger.Entry{EventID: "evt_dup"}))
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, s.Len())
	})

	t.Run("empty id", func(t *testing.T) {
		t.Parallel()
		err := ledger.NewMemoryStore().MarkProcessed(ctx, ledger.Entry{})
		assert.ErrorIs(t, err, ledger.ErrEmptyEventID)
	})
}

func TestPrepare(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	at := now.Add(-time.Hour)

	e, err := ledger.Prepare(ledger.Entry{EventID: "evt", ProcessedAt: at, Outcome: ledger.OutcomeIgnored}, now)
	require.NoError(t, err)
	assert.Equal(t, at, e.ProcessedAt)
	assert.Equal(t, ledger.OutcomeIgnored, e.Outcome)

	e, err = ledger.Prepare(ledger.Entry{EventID: "evt"}, now)
	require.NoError(t, err)
	assert.Equal(t, now, e.ProcessedAt)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	got := ledger.Summarize(map[string]string{
		"customer":       "cus_1",
		"customer_email": "a@example.com",
		"empty":          "",
		"long":           strings.Repeat("x", 300),
	})

	assert.Equal(t, "cus_1", got["customer"])
	assert.Equal(t, "[redacted]", got["customer_email"])
	assert.NotContains(t, got, "empty")
	assert.Len(t, got["long"], 128)

	assert.Nil(t, ledger.Summarize(nil))
	assert.Nil(t, ledger.Summarize(map[string]string{"a": ""}))
}
