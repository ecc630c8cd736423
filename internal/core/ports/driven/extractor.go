package driven

import "context"

// TextExtractor converts a raw document into page-tagged plain text.
//
// Contract: pages are walked in order and each page's text is prefixed with
// a human-readable page marker to support later citation. A single malformed
// page degrades to empty text for that page and is never fatal; only input
// that cannot be opened as a document at all fails, with domain.ErrExtraction.
type TextExtractor interface {
	// Extract returns the concatenated, trimmed page texts.
	Extract(ctx context.Context, data []byte) (string, error)
}
