package pgstore_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/pgstore"
)

func TestMigrations(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(pgstore.Migrations(), "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"00001_create_subscriptions.sql",
		"00002_create_processed_events.sql",
		"00003_create_usage_counters.sql",
	}, files)

	for _, name := range files {
		body, err := fs.ReadFile(pgstore.Migrations(), name)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(body), "-- +goose Up"), name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}
