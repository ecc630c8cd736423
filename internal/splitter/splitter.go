// Package splitter provides fixed-size sliding-window text chunking.
package splitter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/policybot/internal/core/domain"
)

// Splitter splits text into fixed-size chunks with overlap.
//
// The window slides over characters (runes), not tokens: window
// [start, start+size), trimmed; advance start to end-overlap unless end
// reached the text length. Every character of input is covered by at least
// one window; trimming only ever removes pure whitespace.
type Splitter struct {
	size    int
	overlap int
}

// New creates a splitter. The overlap must be smaller than the chunk size
// and the chunk size positive; anything else fails with
// domain.ErrChunkConfig.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrChunkConfig, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrChunkConfig, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrChunkConfig, overlap, size)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Size returns the chunk window size in characters.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the overlap between consecutive chunks in characters.
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the chunk texts for the input, in order. Empty or
// whitespace-only input yields an empty slice. Windows that trim to nothing
// are skipped without breaking the scan, so every emitted chunk is non-empty.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}
	}

	// Rune-based so multi-byte characters are never cut mid-sequence.
	runes := []rune(text)
	n := len(runes)

	chunks := make([]string, 0, n/(s.size-s.overlap)+1)
	start := 0

	for start < n {
		end := start + s.size
		if end > n {
			end = n
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == n {
			break
		}
		start = end - s.overlap
	}

	return chunks
}

// CountRunes reports the chunk length the splitter budgets by.
// Exposed so callers can reason about window maths in the same unit.
func CountRunes(s string) int {
	return utf8.RuneCountInString(s)
}
