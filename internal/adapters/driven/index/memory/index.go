// Package memory provides an in-memory vector index, used in tests and as a
// throwaway index for one-shot runs. Contents are lost on process exit.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/policybot/internal/core/domain"
	"github.com/custodia-labs/policybot/internal/core/ports/driven"
)

// Ensure Index implements the interfaces.
var (
	_ driven.VectorIndex = (*Index)(nil)
	_ driven.IngestLog   = (*Index)(nil)
)

// entry is one stored chunk with its vector and ingest time.
type entry struct {
	item       driven.VectorItem
	ingestedAt time.Time
}

// Index is an in-memory vector index with the same contract as the SQLite
// store: per-tenant scoping, duplicate rejection, model pinning.
type Index struct {
	mu         sync.RWMutex
	collection string
	entries    map[string]entry // keyed by chunk id
	records    []domain.IngestRecord

	// Pinned embedding model identity, set on first VerifyModel call.
	model string
	dims  int
}

// NewIndex creates an empty in-memory index for the given collection.
func NewIndex(collection string) *Index {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &Index{
		collection: collection,
		entries:    make(map[string]entry),
	}
}

// Upsert writes all items or none. Pre-existing ids are rejected.
func (x *Index) Upsert(ctx context.Context, items []driven.VectorItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := x.entries[item.ID]; ok {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateChunk, item.ID)
		}
		if _, ok := seen[item.ID]; ok {
			return fmt.Errorf("%w: %s repeated in batch", domain.ErrDuplicateChunk, item.ID)
		}
		seen[item.ID] = struct{}{}
	}

	now := time.Now()
	for _, item := range items {
		x.entries[item.ID] = entry{item: item, ingestedAt: now}
	}
	return nil
}

// Search returns up to k chunks for the tenant, best-first by cosine similarity.
func (x *Index) Search(ctx context.Context, tenant string, query []float32, k int) ([]domain.RetrievedChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	results := make([]domain.RetrievedChunk, 0, k)
	for _, e := range x.entries {
		if e.item.Tenant != tenant {
			continue
		}
		if len(e.item.Embedding) != len(query) {
			continue
		}
		results = append(results, domain.RetrievedChunk{
			Chunk: domain.Chunk{
				ID:         e.item.ID,
				Tenant:     e.item.Tenant,
				DocName:    e.item.DocName,
				Ordinal:    e.item.Ordinal,
				Content:    e.item.Content,
				SourceFile: e.item.SourceFile,
			},
			Score: cosineSimilarity(query, e.item.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeleteDocument removes all chunks of one document.
func (x *Index) DeleteDocument(ctx context.Context, tenant, docName string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	deleted := 0
	for id, e := range x.entries {
		if e.item.Tenant == tenant && e.item.DocName == docName {
			delete(x.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

// ListDocuments returns the tenant's documents with chunk counts.
func (x *Index) ListDocuments(ctx context.Context, tenant string) ([]domain.DocumentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	byDoc := make(map[string]*domain.DocumentInfo)
	for _, e := range x.entries {
		if e.item.Tenant != tenant {
			continue
		}
		info, ok := byDoc[e.item.DocName]
		if !ok {
			info = &domain.DocumentInfo{
				Tenant:  tenant,
				DocName: e.item.DocName,
			}
			byDoc[e.item.DocName] = info
		}
		info.ChunkCount++
		if e.ingestedAt.After(info.LastIngestedAt) {
			info.LastIngestedAt = e.ingestedAt
		}
	}

	docs := make([]domain.DocumentInfo, 0, len(byDoc))
	for _, info := range byDoc {
		docs = append(docs, *info)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].DocName < docs[j].DocName })
	return docs, nil
}

// VerifyModel pins the embedding model identity on first call and rejects
// disagreement afterwards.
func (x *Index) VerifyModel(ctx context.Context, model string, dims int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.model == "" {
		x.model = model
		x.dims = dims
		return nil
	}
	if x.model != model || x.dims != dims {
		return fmt.Errorf("%w: collection %q uses %s (%d dims), got %s (%d dims)",
			domain.ErrModelMismatch, x.collection, x.model, x.dims, model, dims)
	}
	return nil
}

// Collection returns the collection name.
func (x *Index) Collection() string {
	return x.collection
}

// Record stores one ingest-log row.
func (x *Index) Record(ctx context.Context, rec domain.IngestRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.records = append(x.records, rec)
	return nil
}

// Records returns a copy of the recorded ingest-log rows.
func (x *Index) Records() []domain.IngestRecord {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]domain.IngestRecord, len(x.records))
	copy(out, x.records)
	return out
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for zero-magnitude vectors.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
