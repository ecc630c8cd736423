package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policybot/internal/core/domain"
)

func retrieved(docName string, ordinal int, content, sourceFile string) domain.RetrievedChunk {
	return domain.RetrievedChunk{
		Chunk: domain.Chunk{
			ID:         domain.ChunkID("acme", docName, ordinal),
			Tenant:     "acme",
			DocName:    docName,
			Ordinal:    ordinal,
			Content:    content,
			SourceFile: sourceFile,
		},
	}
}

func TestBuildContext(t *testing.T) {
	chunks := []domain.RetrievedChunk{
		retrieved("handbook", 0, "Vacation is 25 days.", "handbook.pdf"),
		retrieved("handbook", 3, "Sick leave is unlimited.", ""),
	}

	got := BuildContext(chunks, 12000)

	assert.Contains(t, got, "[Source: handbook | chunk 0 | file handbook.pdf]\nVacation is 25 days.")
	assert.Contains(t, got, "[Source: handbook | chunk 3]\nSick leave is unlimited.")
	assert.Contains(t, got, contextSeparator)

	// Rank order is preserved.
	assert.Less(t, strings.Index(got, "chunk 0"), strings.Index(got, "chunk 3"))
}

func TestBuildContext_Empty(t *testing.T) {
	assert.Empty(t, BuildContext(nil, 12000))
	assert.Empty(t, BuildContext([]domain.RetrievedChunk{}, 12000))
}

func TestBuildContext_NeverExceedsBudget(t *testing.T) {
	var chunks []domain.RetrievedChunk
	for i := 0; i < 20; i++ {
		chunks = append(chunks, retrieved("handbook", i, repeat(1200), "handbook.pdf"))
	}

	for _, budget := range []int{500, 1000, 2500, 5000, 12000} {
		got := BuildContext(chunks, budget)
		assert.LessOrEqual(t, len(got), budget, "budget %d", budget)
	}
}

func TestBuildContext_SeparatorCountsAgainstBudget(t *testing.T) {
	chunks := []domain.RetrievedChunk{
		retrieved("a", 0, repeat(400), ""),
		retrieved("b", 0, repeat(400), ""),
	}

	// Budget fits the first block but not the separator plus a useful
	// fragment of the second, so only the first block survives.
	first := blockFor(chunks[0])
	budget := len(first) + len(contextSeparator) + minUsefulFragment/2

	got := BuildContext(chunks, budget)
	assert.LessOrEqual(t, len(got), budget)
	assert.Contains(t, got, "[Source: a | chunk 0]")
	assert.NotContains(t, got, "[Source: b | chunk 0]")
}

func TestBuildContext_PartialFragment(t *testing.T) {
	chunks := []domain.RetrievedChunk{
		retrieved("a", 0, repeat(400), ""),
		retrieved("b", 0, repeat(400), ""),
	}

	first := blockFor(chunks[0])
	budget := len(first) + len(contextSeparator) + minUsefulFragment + 50

	got := BuildContext(chunks, budget)
	assert.LessOrEqual(t, len(got), budget)
	assert.Contains(t, got, "[Source: b | chunk 0]")
}

func TestBuildContext_UTF8SafeTruncation(t *testing.T) {
	content := strings.Repeat("日本語のポリシー文書。", 200)
	chunks := []domain.RetrievedChunk{
		retrieved("a", 0, repeat(400), ""),
		retrieved("b", 0, content, ""),
	}

	first := blockFor(chunks[0])
	budget := len(first) + len(contextSeparator) + minUsefulFragment + 101

	got := BuildContext(chunks, budget)
	assert.LessOrEqual(t, len(got), budget)
	assert.True(t, utf8.ValidString(got))
}

func TestTruncateUTF8(t *testing.T) {
	require.Equal(t, "abc", truncateUTF8("abc", 10))
	require.Equal(t, "ab", truncateUTF8("abc", 2))

	// 3-byte runes never get split.
	s := "日本語"
	for n := 0; n <= len(s); n++ {
		got := truncateUTF8(s, n)
		assert.True(t, utf8.ValidString(got))
		assert.LessOrEqual(t, len(got), n)
	}
}

func TestBuildContext_ZeroBudgetUsesDefault(t *testing.T) {
	chunks := []domain.RetrievedChunk{retrieved("a", 0, "short", "")}
	got := BuildContext(chunks, 0)
	assert.Contains(t, got, "short")
}
