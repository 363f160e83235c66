package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teuglobal/htspilot/internal/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })
	return d
}

func TestSettingsGetDefault(t *testing.T) {
	s := NewSettingsStore(newTestDB(t))

	got, err := s.Get(context.Background(), KeyClassificationPrompt, "fallback prompt")
	require.NoError(t, err)
	assert.Equal(t, "fallback prompt", got)
}

func TestSettingsSetAndGet(t *testing.T) {
	s := NewSettingsStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyLookupPrompt, "custom lookup prompt"))

	got, err := s.Get(ctx, KeyLookupPrompt, "default")
	require.NoError(t, err)
	assert.Equal(t, "custom lookup prompt", got)
}

func TestSettingsSetOverwrites(t *testing.T) {
	s := NewSettingsStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyTemperature, "0.2"))
	require.NoError(t, s.Set(ctx, KeyTemperature, "0.7"))

	got, err := s.Get(ctx, KeyTemperature, "0")
	require.NoError(t, err)
	assert.Equal(t, "0.7", got)
}
