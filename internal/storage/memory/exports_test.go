package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/diet-planner/internal/storage"
)

func TestExportsMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New().Exports()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := &storage.ExportRecord{OwnerUserID: "u", CatalogID: "punjab", Format: "csv", Data: []byte("a,b"), SizeBytes: 3, CreatedAt: base}
	second := &storage.ExportRecord{OwnerUserID: "u", CatalogID: "japan", Format: "pdf", CreatedAt: base.Add(time.Minute)}
	other := &storage.ExportRecord{OwnerUserID: "v", CatalogID: "japan", Format: "pdf"}

	require.NoError(t, s.CreateExport(ctx, first))
	require.NoError(t, s.CreateExport(ctx, second))
	require.NoError(t, s.CreateExport(ctx, other))
	require.NotEqual(t, first.ID, second.ID)

	got, err := s.GetExport(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "a,b", string(got.Data))

	list, err := s.ListExports(ctx, "u", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Nil(t, list[1].Data, "list must not carry file data")

	page, err := s.ListExports(ctx, "u", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)

	require.NoError(t, s.DeleteExport(ctx, first.ID))
	assert.ErrorIs(t, s.DeleteExport(ctx, first.ID), storage.ErrNotFound)
	_, err = s.GetExport(ctx, first.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
