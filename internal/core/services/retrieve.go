package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/policybot/internal/core/domain"
	"github.com/custodia-labs/policybot/internal/core/ports/driven"
	"github.com/custodia-labs/policybot/internal/logger"
)

// RetrieveService embeds a question and finds the tenant's nearest chunks.
type RetrieveService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	settings domain.RetrievalSettings
}

// NewRetrieveService creates a retrieval service.
func NewRetrieveService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	settings domain.RetrievalSettings,
) *RetrieveService {
	return &RetrieveService{
		embedder: embedder,
		index:    index,
		settings: settings.Normalised(),
	}
}

// Retrieve returns up to k chunks relevant to the question, best-first.
// k <= 0 uses the configured top-k. Zero results is not an error.
func (s *RetrieveService) Retrieve(ctx context.Context, tenant, question string, k int) ([]domain.RetrievedChunk, error) {
	if strings.TrimSpace(tenant) == "" {
		return nil, fmt.Errorf("%w: company id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = s.settings.TopK
	}

	if err := s.index.VerifyModel(ctx, s.embedder.ModelName(), s.embedder.Dimensions()); err != nil {
		return nil, err
	}

	query, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	chunks, err := s.index.Search(ctx, tenant, query, k)
	if err != nil {
		return nil, err
	}
	logger.Debug("retrieved %d/%d chunks for tenant %s", len(chunks), k, tenant)
	return chunks, nil
}
