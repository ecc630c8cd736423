package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/policybot/internal/core/domain"
)

// contextSeparator sits between chunk blocks in the assembled context.
const contextSeparator = "\n---\n"

// minUsefulFragment is the smallest partial chunk worth including when the
// budget runs out mid-chunk. Anything shorter is dropped.
const minUsefulFragment = 200

// BuildContext assembles retrieved chunks into one labelled context block
// for the LLM, preserving rank order.
//
// The result never exceeds maxChars bytes; separators count against the
// budget too. When the next chunk doesn't fit, a partial fragment is
// included only if at least minUsefulFragment bytes remain, truncated on a
// UTF-8 boundary.
func BuildContext(chunks []domain.RetrievedChunk, maxChars int) string {
	if maxChars <= 0 {
		maxChars = domain.DefaultMaxContextChars
	}

	var parts []string
	used := 0

	for _, ch := range chunks {
		block := blockFor(ch)

		cost := len(block)
		if len(parts) > 0 {
			cost += len(contextSeparator)
		}

		if used+cost > maxChars {
			remaining := maxChars - used
			if len(parts) > 0 {
				remaining -= len(contextSeparator)
			}
			if remaining > minUsefulFragment {
				parts = append(parts, truncateUTF8(block, remaining))
			}
			break
		}

		parts = append(parts, block)
		used += cost
	}

	return strings.TrimSpace(strings.Join(parts, contextSeparator))
}

// blockFor formats one chunk with its provenance header.
func blockFor(ch domain.RetrievedChunk) string {
	header := fmt.Sprintf("[Source: %s | chunk %d", ch.DocName, ch.Ordinal)
	if ch.SourceFile != "" {
		header += fmt.Sprintf(" | file %s", ch.SourceFile)
	}
	header += "]\n"
	return header + strings.TrimSpace(ch.Content) + "\n"
}

// truncateUTF8 returns a prefix of s at most n bytes long, never splitting
// a multi-byte rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
