package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, found, err := s.LoadSnapshot(ctx, "default", "meal_selection:punjab")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SaveSnapshot(ctx, "default", "meal_selection:punjab", []byte(`{"lunch":["Rajma Chawal"]}`)))
	require.NoError(t, s.SaveSnapshot(ctx, "default", "meal_selection:punjab", []byte(`{"lunch":[]}`)))

	payload, found, err := s.LoadSnapshot(ctx, "default", "meal_selection:punjab")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"lunch":[]}`, string(payload))
}

func TestSQLiteListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.SaveSnapshot(ctx, "a", "saved_posts", []byte(`[]`)))
	require.NoError(t, s.SaveSnapshot(ctx, "a", "calculator_entries", []byte(`[]`)))
	require.NoError(t, s.SaveSnapshot(ctx, "b", "user_state", []byte(`{}`)))

	keys, err := s.ListSnapshotKeys(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"calculator_entries", "saved_posts"}, keys)

	require.NoError(t, s.DeleteSnapshot(ctx, "a", "saved_posts"))
	keys, err = s.ListSnapshotKeys(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"calculator_entries"}, keys)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "planner.db")

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot(ctx, "u", "user_state", []byte(`{"goal":"gain"}`)))
	require.NoError(t, s.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	payload, found, err := reopened.LoadSnapshot(ctx, "u", "user_state")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"goal":"gain"}`, string(payload))
}
