package driving

import (
	"context"

	"github.com/custodia-labs/policybot/internal/core/domain"
)

// IngestRequest describes one document ingestion.
type IngestRequest struct {
	// Tenant is the company_id namespace. Required.
	Tenant string

	// DocName identifies the document within the tenant. Required.
	DocName string

	// Document is the raw document bytes (a PDF).
	Document []byte

	// SourceFile is the original filename, kept for citations.
	SourceFile string

	// Overwrite deletes any existing chunks for (Tenant, DocName) before
	// writing. Without it, re-ingestion fails with domain.ErrDuplicateChunk.
	Overwrite bool
}

// Ingestor runs the ingestion pipeline for one document:
// extract, chunk, embed, index.
type Ingestor interface {
	Ingest(ctx context.Context, req IngestRequest) (*domain.IngestResult, error)
}
