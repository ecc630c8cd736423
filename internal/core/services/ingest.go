// Package services contains the core pipeline services: ingestion,
// retrieval, context assembly and answer synthesis.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/policybot/internal/core/domain"
	"github.com/custodia-labs/policybot/internal/core/ports/driven"
	"github.com/custodia-labs/policybot/internal/core/ports/driving"
	"github.com/custodia-labs/policybot/internal/logger"
	"github.com/custodia-labs/policybot/internal/splitter"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService runs the ingestion pipeline for one document:
// extract, chunk, embed, index.
type IngestService struct {
	extractor driven.TextExtractor
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	ingestLog driven.IngestLog // nil disables audit logging
	settings  domain.IngestSettings
}

// NewIngestService creates an ingestion service. ingestLog may be nil.
func NewIngestService(
	extractor driven.TextExtractor,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	ingestLog driven.IngestLog,
	settings domain.IngestSettings,
) *IngestService {
	return &IngestService{
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		ingestLog: ingestLog,
		settings:  settings.Normalised(),
	}
}

// Ingest extracts, chunks, embeds and indexes one document.
//
// The write is all-or-none: if any chunk id already exists the whole run
// fails with domain.ErrDuplicateChunk unless req.Overwrite is set, which
// deletes the document's existing chunks first.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
	if err := validateIngestRequest(req); err != nil {
		return nil, err
	}

	logger.Section(fmt.Sprintf("Ingesting %s/%s", req.Tenant, req.DocName))

	text, err := s.extractor.Extract(ctx, req.Document)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s (scanned or image-only document?)",
			domain.ErrNoTextExtracted, req.DocName)
	}
	logger.Debug("extracted %d characters", len(text))

	split, err := splitter.New(s.settings.ChunkSize, s.settings.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	chunks := split.Split(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoChunks, req.DocName)
	}
	logger.Debug("split into %d chunks (size %d, overlap %d)",
		len(chunks), split.Size(), split.Overlap())

	if err := s.index.VerifyModel(ctx, s.embedder.ModelName(), s.embedder.Dimensions()); err != nil {
		return nil, err
	}

	embeddings, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	if req.Overwrite {
		deleted, err := s.index.DeleteDocument(ctx, req.Tenant, req.DocName)
		if err != nil {
			return nil, fmt.Errorf("deleting existing chunks: %w", err)
		}
		if deleted > 0 {
			logger.Debug("overwrite: deleted %d existing chunks", deleted)
		}
	}

	items := make([]driven.VectorItem, len(chunks))
	for i, content := range chunks {
		items[i] = driven.VectorItem{
			ID:         domain.ChunkID(req.Tenant, req.DocName, i),
			Tenant:     req.Tenant,
			DocName:    req.DocName,
			Ordinal:    i,
			Content:    content,
			SourceFile: req.SourceFile,
			Embedding:  embeddings[i],
		}
	}

	if err := s.index.Upsert(ctx, items); err != nil {
		return nil, err
	}

	result := &domain.IngestResult{
		IngestID:    uuid.NewString(),
		Tenant:      req.Tenant,
		DocName:     req.DocName,
		ChunksAdded: len(items),
		Collection:  s.index.Collection(),
	}

	if s.ingestLog != nil {
		rec := domain.IngestRecord{
			IngestID:    result.IngestID,
			Tenant:      req.Tenant,
			DocName:     req.DocName,
			SourceFile:  req.SourceFile,
			ChunksAdded: result.ChunksAdded,
			Model:       s.embedder.ModelName(),
			CreatedAt:   time.Now(),
		}
		if err := s.ingestLog.Record(ctx, rec); err != nil {
			// Audit logging never fails an otherwise successful ingest.
			logger.Warn("ingest log write failed: %v", err)
		}
	}

	logger.Info("ingested %s/%s: %d chunks into %s",
		req.Tenant, req.DocName, result.ChunksAdded, result.Collection)
	return result, nil
}

// embedChunks embeds chunks in batches, preserving input order.
// Batch boundaries affect throughput only, never the output.
func (s *IngestService) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	dims := s.embedder.Dimensions()
	embeddings := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += s.settings.BatchSize {
		end := start + s.settings.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch, err := s.embedder.EmbedBatch(ctx, chunks[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedding chunks %d-%d: got %d vectors for %d inputs",
				start, end-1, len(batch), end-start)
		}
		for i, vec := range batch {
			if len(vec) != dims {
				return nil, fmt.Errorf("%w: chunk %d has %d dims, expected %d",
					domain.ErrModelMismatch, start+i, len(vec), dims)
			}
		}

		embeddings = append(embeddings, batch...)
		logger.Debug("embedded chunks %d-%d", start, end-1)
	}

	return embeddings, nil
}

// validateIngestRequest checks required request fields. Document
// well-formedness is the extractor's concern: empty or corrupt bytes fail
// there with domain.ErrExtraction.
func validateIngestRequest(req driving.IngestRequest) error {
	if strings.TrimSpace(req.Tenant) == "" {
		return fmt.Errorf("%w: company id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.DocName) == "" {
		return fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}
	return nil
}
