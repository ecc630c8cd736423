package driven

import (
	"context"

	"github.com/custodia-labs/policybot/internal/core/domain"
)

// VectorItem is one chunk write: vector plus the chunk row it belongs to.
type VectorItem struct {
	// ID is the deterministic chunk id "tenant::doc_name::ordinal".
	ID string

	Tenant     string
	DocName    string
	Ordinal    int
	Content    string
	SourceFile string

	// Embedding is the chunk's vector, produced by the collection's
	// pinned embedding model.
	Embedding []float32
}

// VectorIndex persists chunk vectors and metadata, namespaced per tenant,
// and answers nearest-neighbour queries.
//
// Tenant scoping is enforced inside every implementation as the last line
// of defense: no call may return rows from another tenant regardless of
// filter correctness elsewhere in the stack.
//
// Scores are cosine similarity, higher is better. Implementations backed by
// distance metrics must convert before returning.
type VectorIndex interface {
	// Upsert writes all items or none. Pre-existing ids are rejected with
	// domain.ErrDuplicateChunk; overwrite requires an explicit
	// DeleteDocument first. Ids must be unique within the call.
	Upsert(ctx context.Context, items []VectorItem) error

	// Search returns up to k chunks for the tenant, best-first.
	// Fewer than k matches (including zero) is not an error.
	Search(ctx context.Context, tenant string, query []float32, k int) ([]domain.RetrievedChunk, error)

	// DeleteDocument removes all chunks of one document and reports how
	// many rows were deleted.
	DeleteDocument(ctx context.Context, tenant, docName string) (int, error)

	// ListDocuments returns the tenant's ingested documents with chunk
	// counts and last ingest time.
	ListDocuments(ctx context.Context, tenant string) ([]domain.DocumentInfo, error)

	// VerifyModel checks the embedding model identity and dimensionality
	// against the collection metadata, recording them on first contact.
	// A mismatch fails with domain.ErrModelMismatch.
	VerifyModel(ctx context.Context, model string, dims int) error

	// Collection returns the collection name this index writes to.
	Collection() string

	// Close releases resources.
	Close() error
}

// IngestLog records completed ingestion runs for auditability.
// Implementations may be no-ops; the pipeline treats a nil log as disabled.
type IngestLog interface {
	// Record persists one ingest-log row.
	Record(ctx context.Context, rec domain.IngestRecord) error
}
