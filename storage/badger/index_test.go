package badger

import (
	"context"
	"testing"

	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndexStore(t *testing.T) *IndexStore {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	store, err := newIndexStore(backend)
	require.NoError(t, err)
	return store
}

func TestMergeOrUpload_InsertThenMerge(t *testing.T) {
	store := newTestIndexStore(t)
	ctx := context.Background()

	results, err := store.MergeOrUpload(ctx, []core.SearchDocument{
		{"id": "doc_1", "title": "First", "category": "report"},
		{"id": "doc_2", "title": "Second"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Succeeded)
		assert.Equal(t, 201, *r.StatusCode)
	}

	results, err = store.MergeOrUpload(ctx, []core.SearchDocument{
		{"id": "doc_1", "title": "First (rev 2)"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc_1", results[0].Key)
	assert.Equal(t, 200, *results[0].StatusCode)

	doc, err := store.GetDocument(ctx, "doc_1")
	require.NoError(t, err)
	assert.Equal(t, "First (rev 2)", doc["title"])
	assert.Equal(t, "report", doc["category"])
}

func TestMergeOrUpload_Idempotent(t *testing.T) {
	store := newTestIndexStore(t)
	ctx := context.Background()
	docs := []core.SearchDocument{{"id": "doc_1", "content": "same"}}

	_, err := store.MergeOrUpload(ctx, docs)
	require.NoError(t, err)
	_, err = store.MergeOrUpload(ctx, docs)
	require.NoError(t, err)

	doc, err := store.GetDocument(ctx, "doc_1")
	require.NoError(t, err)
	assert.Equal(t, core.SearchDocument{"id": "doc_1", "content": "same"}, doc)
}

func TestMergeOrUpload_MissingKey(t *testing.T) {
	store := newTestIndexStore(t)

	results, err := store.MergeOrUpload(context.Background(), []core.SearchDocument{
		{"title": "no id"},
		{"id": "doc_ok"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Succeeded)
	assert.Equal(t, 400, *results[0].StatusCode)
	assert.True(t, results[1].Succeeded)
}

func TestMergeOrUpload_ClosedBackend(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	store, err := newIndexStore(backend)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = store.MergeOrUpload(context.Background(), []core.SearchDocument{{"id": "x"}})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestGetDocument_NotFound(t *testing.T) {
	store := newTestIndexStore(t)

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
