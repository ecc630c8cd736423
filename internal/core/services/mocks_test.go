package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/policybot/internal/core/ports/driven"
)

// mockExtractor returns canned text keyed by the document bytes.
type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) Extract(_ context.Context, _ []byte) (string, error) {
	return m.text, m.err
}

// mockEmbedder produces small deterministic vectors. Texts registered in
// vectors get those exactly; everything else gets a length-derived vector.
type mockEmbedder struct {
	model      string
	dims       int
	vectors    map[string][]float32
	batchCalls [][]string
	embedErr   error
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{
		model:   "mock-embed",
		dims:    3,
		vectors: make(map[string][]float32),
	}
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	if vec, ok := m.vectors[text]; ok {
		return vec
	}
	return []float32{float32(len(text)), 1, 0}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.batchCalls = append(m.batchCalls, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return m.model }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockLLM echoes a canned reply and records the messages it was sent.
type mockLLM struct {
	reply    string
	err      error
	messages []driven.ChatMessage
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.messages = append([]driven.ChatMessage(nil), messages...)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockPrompts serves the default prompt shapes without touching disk.
type mockPrompts struct{}

func (mockPrompts) Load(name string) (string, error) {
	switch name {
	case driven.PromptAnswerSystem:
		return "You are a company policy assistant. If the context lacks the answer say: " +
			"'I can't find this explicitly in the provided policy documents.'", nil
	case driven.PromptAnswerUser:
		return "Company Policy Context:\n{context}\n\nEmployee Question:\n{question}", nil
	default:
		return "", fmt.Errorf("unknown prompt %q", name)
	}
}

// repeat builds a deterministic text of exactly n characters.
func repeat(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; b.Len() < n; i++ {
		word := fmt.Sprintf("word%d ", i)
		if b.Len()+len(word) > n {
			b.WriteString(strings.Repeat("x", n-b.Len()))
			break
		}
		b.WriteString(word)
	}
	return b.String()
}
