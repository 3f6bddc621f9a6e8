package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	cfg := &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "badger"),
	}
	mgr, err := NewManager(common.GetLogger(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	return mgr.(*Manager)
}

func TestDocumentStorageSaveAndGet(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	store := mgr.DocumentStorage()

	doc := &models.Document{
		ID:          "doc_test_1",
		Path:        "/input/Sheet1/scan_0001.pdf",
		Filename:    "scan_0001.pdf",
		Tab:         "Sheet1",
		FF:          "FF1",
		ContentHash: "abc123",
		Status:      models.DocumentStatusProcessed,
		Extractor:   "docai",
		Metadata:    models.Metadata{Title: "Gazette", Date: "1987/03/12"},
	}
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc_test_1")
	require.NoError(t, err)
	assert.Equal(t, "scan_0001.pdf", got.Filename)
	assert.Equal(t, "Gazette", got.Metadata.Title)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestDocumentStorageRequiresID(t *testing.T) {
	mgr := newTestManager(t)
	err := mgr.DocumentStorage().SaveDocument(context.Background(), &models.Document{})
	assert.Error(t, err)
}

func TestDocumentStorageIsProcessed(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	store := mgr.DocumentStorage()

	processed, err := store.IsProcessed(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, store.SaveDocument(ctx, &models.Document{
		ID:          "doc_failed",
		ContentHash: "hash_failed",
		Status:      models.DocumentStatusFailed,
	}))
	processed, err = store.IsProcessed(ctx, "hash_failed")
	require.NoError(t, err)
	assert.False(t, processed, "failed documents should be retried")

	require.NoError(t, store.SaveDocument(ctx, &models.Document{
		ID:          "doc_done",
		ContentHash: "hash_done",
		Status:      models.DocumentStatusProcessed,
	}))
	processed, err = store.IsProcessed(ctx, "hash_done")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestDocumentStorageList(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	store := mgr.DocumentStorage()

	for _, id := range []string{"doc_a", "doc_b", "doc_c"} {
		require.NoError(t, store.SaveDocument(ctx, &models.Document{
			ID:          id,
			ContentHash: "hash_" + id,
			Status:      models.DocumentStatusProcessed,
		}))
	}

	docs, err := store.ListDocuments(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	all, err := store.ListDocuments(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestKVStorageRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	kv := mgr.KeyValueStorage()

	require.NoError(t, kv.Set(ctx, "openai_api_key", "sk-test"))

	val, err := kv.Get(ctx, "openai_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", val)

	all, err := kv.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"openai_api_key": "sk-test"}, all)

	require.NoError(t, kv.Delete(ctx, "openai_api_key"))
	_, err = kv.Get(ctx, "openai_api_key")
	assert.Error(t, err)

	// Deleting a missing key is not an error
	assert.NoError(t, kv.Delete(ctx, "openai_api_key"))
}
