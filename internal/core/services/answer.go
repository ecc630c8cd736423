package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/policybot/internal/core/domain"
	"github.com/custodia-labs/policybot/internal/core/ports/driven"
	"github.com/custodia-labs/policybot/internal/core/ports/driving"
	"github.com/custodia-labs/policybot/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.Answerer = (*AnswerService)(nil)

// AnswerService retrieves tenant-scoped context and synthesises a grounded
// answer with the LLM.
type AnswerService struct {
	retriever *RetrieveService
	llm       driven.LLMService
	prompts   driven.PromptStore
	settings  domain.RetrievalSettings
}

// NewAnswerService creates an answer service.
func NewAnswerService(
	retriever *RetrieveService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.RetrievalSettings,
) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
		settings:  settings.Normalised(),
	}
}

// Answer runs retrieval, context assembly and generation for one question.
//
// Zero retrieved chunks is not an error: the model is still invoked with an
// empty context and the system prompt's fallback instruction produces the
// "can't find this" response. A failed or empty generation is
// domain.ErrGeneration; no answer is ever fabricated locally.
func (s *AnswerService) Answer(ctx context.Context, req driving.AnswerRequest) (*domain.AnswerResult, error) {
	if strings.TrimSpace(req.Tenant) == "" {
		return nil, fmt.Errorf("%w: company id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	logger.Section(fmt.Sprintf("Answering for %s", req.Tenant))

	retrieved, err := s.retriever.Retrieve(ctx, req.Tenant, req.Question, req.TopK)
	if err != nil {
		return nil, err
	}

	contextBlock := BuildContext(retrieved, s.settings.MaxContextChars)
	logger.Debug("context block: %d bytes from %d chunks", len(contextBlock), len(retrieved))

	systemPrompt, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return nil, fmt.Errorf("loading system prompt: %w", err)
	}
	userTemplate, err := s.prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return nil, fmt.Errorf("loading user prompt: %w", err)
	}

	// Literal substitution keeps user-edited templates safe: a stray
	// percent sign in a prompt file must pass through untouched.
	userPrompt := strings.NewReplacer(
		"{context}", contextBlock,
		"{question}", req.Question,
	).Replace(userTemplate)

	messages := []driven.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}

	answer, err := s.llm.Chat(ctx, messages, driven.ChatOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: model returned empty output", domain.ErrGeneration)
	}

	result := &domain.AnswerResult{Answer: answer}

	if req.WantSources {
		// Sources are the chunks retrieved and offered to the model,
		// whether or not it drew on them.
		result.Sources = make([]domain.SourceRef, len(retrieved))
		for i, ch := range retrieved {
			result.Sources[i] = domain.SourceRef{
				DocName:    ch.DocName,
				Ordinal:    ch.Ordinal,
				SourceFile: ch.SourceFile,
				Score:      ch.Score,
			}
		}
	}

	return result, nil
}
