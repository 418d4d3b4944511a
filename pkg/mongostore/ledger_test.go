package mongostore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/subsync/pkg/ledger"
	"github.com/dmitrymomot/subsync/pkg/mongostore"
)

// database connects to MONGODB_URL; tests are skipped without it.
func database(t *testing.T) *mongo.Database {
	t.Helper()
	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL is not set")
	}
	client, err := mongo.Connect(options.Client().ApplyURI(url))
	require.NoError(t, err)
	db := client.Database("subsync_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx := context.Background()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestLedgerStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := mongostore.NewLedgerStore(database(t), "", mongostore.WithRetention(24*time.Hour))
	require.NoError(t, s.EnsureIndexes(ctx))

	seen, err := s.IsProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	entry := ledger.Entry{EventID: "evt_1", EventType: "invoice.paid", Provider: "stripe", UserID: "u1"}
	require.NoError(t, s.MarkProcessed(ctx, entry))

	entry.UserID = "u2"
	require.NoError(t, s.MarkProcessed(ctx, entry), "second mark is not an error")

	seen, err = s.IsProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	got, ok, err := s.Lookup(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, ledger.OutcomeApplied, got.Outcome)

	assert.ErrorIs(t, s.MarkProcessed(ctx, ledger.Entry{}), ledger.ErrEmptyEventID)
}
