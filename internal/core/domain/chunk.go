package domain

import (
	"fmt"
	"time"
)

// ChunkID builds the deterministic chunk identifier for a tenant, document
// and chunk ordinal. Re-chunking the same document with the same settings
// always yields the same ids.
func ChunkID(tenant, docName string, ordinal int) string {
	return fmt.Sprintf("%s::%s::%d", tenant, docName, ordinal)
}

// Chunk is one contiguous slice of a document's extracted text.
type Chunk struct {
	// ID is the deterministic identifier "tenant::doc_name::ordinal".
	ID string

	// Tenant is the company_id namespace the chunk belongs to.
	Tenant string

	// DocName identifies the source document within the tenant.
	DocName string

	// Ordinal is the chunk's zero-based position within the document.
	Ordinal int

	// Content is the chunk text.
	Content string

	// SourceFile is the original filename, kept for citations.
	SourceFile string
}

// RetrievedChunk is a chunk returned by a similarity search.
type RetrievedChunk struct {
	Chunk

	// Score is cosine similarity against the query, higher is better.
	Score float64
}

// IngestResult summarises one completed document ingestion.
type IngestResult struct {
	// IngestID uniquely identifies this ingestion run.
	IngestID string `json:"ingest_id"`

	// Tenant is the company_id the document was ingested for.
	Tenant string `json:"company_id"`

	// DocName is the document's name within the tenant.
	DocName string `json:"doc_name"`

	// ChunksAdded is the number of chunks written to the index.
	ChunksAdded int `json:"chunks_added"`

	// Collection is the vector index collection written to.
	Collection string `json:"collection"`
}

// IngestRecord is one audit row describing a completed ingestion run.
type IngestRecord struct {
	IngestID    string
	Tenant      string
	DocName     string
	SourceFile  string
	ChunksAdded int
	Model       string
	CreatedAt   time.Time
}

// DocumentInfo describes one ingested document as stored in the index.
type DocumentInfo struct {
	// Tenant is the owning company_id.
	Tenant string `json:"company_id"`

	// DocName is the document's name within the tenant.
	DocName string `json:"doc_name"`

	// ChunkCount is the number of chunks currently indexed.
	ChunkCount int `json:"chunk_count"`

	// LastIngestedAt is when the document's chunks were last written.
	LastIngestedAt time.Time `json:"last_ingested_at"`
}

// SourceRef is the provenance of one retrieved chunk, attached to an answer
// when sources are requested.
type SourceRef struct {
	// DocName is the source document's name.
	DocName string `json:"doc_name"`

	// Ordinal is the chunk's position within the document.
	Ordinal int `json:"chunk_idx"`

	// SourceFile is the original filename.
	SourceFile string `json:"source_file,omitempty"`

	// Score is the chunk's cosine similarity against the question.
	Score float64 `json:"score"`
}

// AnswerResult is a grounded answer with optional provenance.
// Sources lists every chunk retrieved and offered to the model, whether or
// not the model drew on it.
type AnswerResult struct {
	// Answer is the model's reply, grounded in the retrieved context.
	Answer string `json:"answer"`

	// Sources is the provenance of the retrieved chunks. Populated only
	// when requested.
	Sources []SourceRef `json:"sources,omitempty"`
}
