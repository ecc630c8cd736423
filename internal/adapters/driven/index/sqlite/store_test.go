package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policybot/internal/core/domain"
	"github.com/custodia-labs/policybot/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), "test_policies")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func item(tenant, docName string, ordinal int, embedding []float32) driven.VectorItem {
	return driven.VectorItem{
		ID:         domain.ChunkID(tenant, docName, ordinal),
		Tenant:     tenant,
		DocName:    docName,
		Ordinal:    ordinal,
		Content:    "chunk content",
		SourceFile: docName + ".pdf",
		Embedding:  embedding,
	}
}

func TestNewStore(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, "test_policies", store.Collection())
	assert.FileExists(t, store.Path())
}

func TestNewStore_DefaultCollection(t *testing.T) {
	store, err := NewStore(t.TempDir(), "")
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, domain.DefaultCollection, store.Collection())
}

func TestNewStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir, "test_policies")
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, []driven.VectorItem{
		item("acme", "handbook", 0, []float32{1, 0, 0}),
	}))
	require.NoError(t, store.Close())

	// Reopening runs migrations idempotently and keeps the data.
	store, err = NewStore(dir, "test_policies")
	require.NoError(t, err)
	defer store.Close()

	results, err := store.Search(ctx, "acme", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "acme::handbook::0", results[0].ID)
}

func TestUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, []driven.VectorItem{
		item("acme", "handbook", 0, []float32{1, 0, 0}),
		item("acme", "handbook", 1, []float32{0, 1, 0}),
		item("acme", "handbook", 2, []float32{0.9, 0.1, 0}),
	}))

	results, err := store.Search(ctx, "acme", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "acme::handbook::0", results[0].ID)
	assert.Equal(t, "acme::handbook::2", results[1].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, "chunk content", results[0].Content)
	assert.Equal(t, "handbook.pdf", results[0].SourceFile)
}

func TestSearch_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, []driven.VectorItem{
		item("acme", "handbook", 0, []float32{1, 0, 0}),
		item("other", "handbook", 0, []float32{1, 0, 0}),
	}))

	results, err := store.Search(ctx, "acme", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "acme", results[0].Tenant)

	results, err = store.Search(ctx, "nobody", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpsert_DuplicateRollsBackBatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, []driven.VectorItem{
		item("acme", "handbook", 0, []float32{1, 0}),
	}))

	err := store.Upsert(ctx, []driven.VectorItem{
		item("acme", "handbook", 1, []float32{0, 1}),
		item("acme", "handbook", 0, []float32{1, 0}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateChunk)

	// Nothing from the failed batch was written.
	docs, err := store.ListDocuments(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 1, docs[0].ChunkCount)
}

func TestUpsert_DuplicateWithinBatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.Upsert(ctx, []driven.VectorItem{
		item("acme", "handbook", 0, []float32{1, 0}),
		item("acme", "handbook", 0, []float32{1, 0}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateChunk)
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, []driven.VectorItem{
		item("acme", "handbook", 0, []float32{1, 0}),
		item("acme", "handbook", 1, []float32{0, 1}),
		item("acme", "leave_policy", 0, []float32{1, 1}),
	}))

	deleted, err := store.DeleteDocument(ctx, "acme", "handbook")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	docs, err := store.ListDocuments(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "leave_policy", docs[0].DocName)

	deleted, err = store.DeleteDocument(ctx, "acme", "handbook")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, []driven.VectorItem{
		item("acme", "handbook", 0, []float32{1, 0}),
		item("acme", "handbook", 1, []float32{0, 1}),
		item("acme", "leave_policy", 0, []float32{1, 1}),
		item("other", "handbook", 0, []float32{1, 0}),
	}))

	docs, err := store.ListDocuments(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "handbook", docs[0].DocName)
	assert.Equal(t, 2, docs[0].ChunkCount)
	assert.False(t, docs[0].LastIngestedAt.IsZero())
	assert.Equal(t, "leave_policy", docs[1].DocName)
	assert.Equal(t, 1, docs[1].ChunkCount)
}

func TestVerifyModel(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.VerifyModel(ctx, "nomic-embed-text", 768))
	require.NoError(t, store.VerifyModel(ctx, "nomic-embed-text", 768))

	err := store.VerifyModel(ctx, "text-embedding-3-small", 1536)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelMismatch)

	err = store.VerifyModel(ctx, "nomic-embed-text", 384)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelMismatch)
}

func TestVerifyModel_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir, "test_policies")
	require.NoError(t, err)
	require.NoError(t, store.VerifyModel(ctx, "nomic-embed-text", 768))
	require.NoError(t, store.Close())

	store, err = NewStore(dir, "test_policies")
	require.NoError(t, err)
	defer store.Close()

	err = store.VerifyModel(ctx, "text-embedding-3-small", 1536)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelMismatch)
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Record(ctx, domain.IngestRecord{
		IngestID:    "run-1",
		Tenant:      "acme",
		DocName:     "handbook",
		SourceFile:  "handbook.pdf",
		ChunksAdded: 3,
		Model:       "nomic-embed-text",
	}))

	// Missing id gets one generated.
	require.NoError(t, store.Record(ctx, domain.IngestRecord{
		Tenant:      "acme",
		DocName:     "leave_policy",
		ChunksAdded: 1,
	}))

	var count int
	require.NoError(t, store.db.QueryRow(
		"SELECT COUNT(*) FROM ingest_log WHERE tenant = ?", "acme").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	vec := []float32{0.1, -2.5, 3.75, 0}
	assert.Equal(t, vec, bytesToFloat32Slice(float32SliceToBytes(vec)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
