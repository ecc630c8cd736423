package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policybot/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/policybot/internal/core/domain"
	"github.com/custodia-labs/policybot/internal/core/ports/driven"
	"github.com/custodia-labs/policybot/internal/core/ports/driving"
)

// fallbackAnswer is what the grounding prompt instructs the model to say
// when the context lacks the answer.
const fallbackAnswer = "I can't find this explicitly in the provided policy documents."

func seedIndex(t *testing.T, idx *memory.Index, embedder *mockEmbedder, tenant string, chunks map[string][]float32) {
	t.Helper()
	ctx := context.Background()

	ordinal := 0
	var items []driven.VectorItem
	for content, vec := range chunks {
		embedder.vectors[content] = vec
		items = append(items, driven.VectorItem{
			ID:         domain.ChunkID(tenant, "handbook", ordinal),
			Tenant:     tenant,
			DocName:    "handbook",
			Ordinal:    ordinal,
			Content:    content,
			SourceFile: "handbook.pdf",
			Embedding:  vec,
		})
		ordinal++
	}
	require.NoError(t, idx.Upsert(ctx, items))
}

func newAnswerService(idx *memory.Index, embedder *mockEmbedder, llm *mockLLM) *AnswerService {
	retriever := NewRetrieveService(embedder, idx, domain.RetrievalSettings{})
	return NewAnswerService(retriever, llm, mockPrompts{}, domain.RetrievalSettings{})
}

func TestAnswer(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewIndex("test")
	embedder := newMockEmbedder()

	seedIndex(t, idx, embedder, "acme", map[string][]float32{
		"Vacation is 25 days per year.": {1, 0, 0},
	})
	embedder.vectors["How many vacation days?"] = []float32{1, 0, 0}

	llm := &mockLLM{reply: "You get 25 days. (Source: handbook | chunk 0)"}
	svc := newAnswerService(idx, embedder, llm)

	result, err := svc.Answer(ctx, driving.AnswerRequest{
		Tenant:      "acme",
		Question:    "How many vacation days?",
		WantSources: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "You get 25 days. (Source: handbook | chunk 0)", result.Answer)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "handbook", result.Sources[0].DocName)
	assert.Equal(t, 0, result.Sources[0].Ordinal)
	assert.Equal(t, "handbook.pdf", result.Sources[0].SourceFile)
	assert.InDelta(t, 1.0, result.Sources[0].Score, 1e-6)

	// The retrieved chunk made it into the user prompt.
	require.Len(t, llm.messages, 2)
	assert.Equal(t, "system", llm.messages[0].Role)
	assert.Equal(t, "user", llm.messages[1].Role)
	assert.Contains(t, llm.messages[1].Content, "Vacation is 25 days per year.")
	assert.Contains(t, llm.messages[1].Content, "How many vacation days?")
}

func TestAnswer_NoSourcesUnlessRequested(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewIndex("test")
	embedder := newMockEmbedder()

	seedIndex(t, idx, embedder, "acme", map[string][]float32{
		"Vacation is 25 days per year.": {1, 0, 0},
	})

	llm := &mockLLM{reply: "You get 25 days."}
	svc := newAnswerService(idx, embedder, llm)

	result, err := svc.Answer(ctx, driving.AnswerRequest{
		Tenant:   "acme",
		Question: "How many vacation days?",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Sources)
}

func TestAnswer_EmptyTenantIndex(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewIndex("test")
	embedder := newMockEmbedder()

	// Nothing ingested: the model is still invoked and the grounding
	// prompt produces the fallback. No error.
	llm := &mockLLM{reply: fallbackAnswer}
	svc := newAnswerService(idx, embedder, llm)

	result, err := svc.Answer(ctx, driving.AnswerRequest{
		Tenant:      "acme",
		Question:    "What is the remote work policy?",
		WantSources: true,
	})
	require.NoError(t, err)
	assert.Equal(t, fallbackAnswer, result.Answer)
	assert.Empty(t, result.Sources)
	require.Len(t, llm.messages, 2)
}

func TestAnswer_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewIndex("test")
	embedder := newMockEmbedder()

	seedIndex(t, idx, embedder, "acme", map[string][]float32{
		"Acme vacation is 25 days.": {1, 0, 0},
	})
	embedder.vectors["How many vacation days?"] = []float32{1, 0, 0}

	llm := &mockLLM{reply: fallbackAnswer}
	svc := newAnswerService(idx, embedder, llm)

	// A different tenant retrieves nothing, even with a perfectly
	// matching question vector.
	result, err := svc.Answer(ctx, driving.AnswerRequest{
		Tenant:      "other",
		Question:    "How many vacation days?",
		WantSources: true,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Sources)
	assert.NotContains(t, llm.messages[1].Content, "Acme vacation")
}

// percentPrompts is a user-edited template carrying literal percent signs.
type percentPrompts struct{}

func (percentPrompts) Load(name string) (string, error) {
	switch name {
	case driven.PromptAnswerSystem:
		return "Raises are expressed in %, e.g. a 10% raise. Answer from context only.", nil
	case driven.PromptAnswerUser:
		return "Context (100% of what you may use):\n{context}\n\nQuestion:\n{question}", nil
	default:
		return "", fmt.Errorf("unknown prompt %q", name)
	}
}

func TestAnswer_PercentSignsInTemplateSurvive(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewIndex("test")
	embedder := newMockEmbedder()

	seedIndex(t, idx, embedder, "acme", map[string][]float32{
		"Annual raises are capped at 5%.": {1, 0, 0},
	})
	embedder.vectors["What is the raise cap?"] = []float32{1, 0, 0}

	llm := &mockLLM{reply: "The cap is 5%."}
	retriever := NewRetrieveService(embedder, idx, domain.RetrievalSettings{})
	svc := NewAnswerService(retriever, llm, percentPrompts{}, domain.RetrievalSettings{})

	_, err := svc.Answer(ctx, driving.AnswerRequest{
		Tenant:   "acme",
		Question: "What is the raise cap?",
	})
	require.NoError(t, err)

	require.Len(t, llm.messages, 2)
	assert.Contains(t, llm.messages[0].Content, "a 10% raise")
	assert.Contains(t, llm.messages[1].Content, "Context (100% of what you may use):")
	assert.Contains(t, llm.messages[1].Content, "Annual raises are capped at 5%.")
	assert.Contains(t, llm.messages[1].Content, "What is the raise cap?")
	assert.NotContains(t, llm.messages[1].Content, "MISSING")
	assert.NotContains(t, llm.messages[1].Content, "{context}")
	assert.NotContains(t, llm.messages[1].Content, "{question}")
}

func TestAnswer_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newAnswerService(memory.NewIndex("test"), newMockEmbedder(), &mockLLM{reply: "x"})

	_, err := svc.Answer(ctx, driving.AnswerRequest{Tenant: "", Question: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Answer(ctx, driving.AnswerRequest{Tenant: "acme", Question: "  "})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnswer_GenerationFails(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewIndex("test")
	embedder := newMockEmbedder()

	llm := &mockLLM{err: errors.New("connection refused")}
	svc := newAnswerService(idx, embedder, llm)

	_, err := svc.Answer(ctx, driving.AnswerRequest{Tenant: "acme", Question: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGeneration)
}

func TestAnswer_EmptyGeneration(t *testing.T) {
	ctx := context.Background()
	llm := &mockLLM{reply: "   \n"}
	svc := newAnswerService(memory.NewIndex("test"), newMockEmbedder(), llm)

	_, err := svc.Answer(ctx, driving.AnswerRequest{Tenant: "acme", Question: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGeneration)
}

func TestRetrieve_TopKOverride(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewIndex("test")
	embedder := newMockEmbedder()

	seedIndex(t, idx, embedder, "acme", map[string][]float32{
		"chunk one":   {1, 0, 0},
		"chunk two":   {0.9, 0.1, 0},
		"chunk three": {0.8, 0.2, 0},
	})
	embedder.vectors["q"] = []float32{1, 0, 0}

	retriever := NewRetrieveService(embedder, idx, domain.RetrievalSettings{TopK: 2})

	chunks, err := retriever.Retrieve(ctx, "acme", "q", 0)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)

	chunks, err = retriever.Retrieve(ctx, "acme", "q", 1)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestRetrieve_ModelMismatch(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewIndex("test")
	require.NoError(t, idx.VerifyModel(ctx, "other-model", 768))

	retriever := NewRetrieveService(newMockEmbedder(), idx, domain.RetrievalSettings{})

	_, err := retriever.Retrieve(ctx, "acme", "q", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelMismatch)
}
