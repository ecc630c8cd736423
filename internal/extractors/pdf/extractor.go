// Package pdf extracts page-tagged plain text from PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/custodia-labs/policybot/internal/core/domain"
	"github.com/custodia-labs/policybot/internal/core/ports/driven"
	"github.com/custodia-labs/policybot/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor reads PDF bytes and produces page-tagged plain text.
//
// Per-page extraction failures degrade to empty text for that page; this is
// a named policy, not an accident: a single malformed page must not abort
// the whole document. Scanned/image-only pages also yield no text — OCR is
// out of scope and the ingestion pipeline rejects fully empty documents
// with domain.ErrNoTextExtracted.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract converts the document into the concatenation of all page texts,
// each prefixed with a page marker, trimmed. Input that cannot be opened as
// a PDF at all fails with domain.ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty document", domain.ErrExtraction)
	}

	reader, err := openReader(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		b.WriteString(pageMarker(i))
		b.WriteString(extractPage(reader, i))
	}

	return strings.TrimSpace(b.String()), nil
}

// pageMarker renders the human-readable page prefix used for citations.
func pageMarker(num int) string {
	return fmt.Sprintf("\n\n--- Page %d ---\n", num)
}

// openReader opens the PDF. The parser panics on some malformed files, so
// the panic is converted into an error here.
func openReader(data []byte) (reader *lpdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			reader = nil
			err = fmt.Errorf("malformed document: %v", p)
		}
	}()
	return lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// extractPage returns the plain text of one page, or "" when the page
// cannot be parsed. Failures are logged and never escalated.
func extractPage(reader *lpdf.Reader, num int) (text string) {
	defer func() {
		if p := recover(); p != nil {
			logger.Warn("Page %d extraction panicked, treating as empty: %v", num, p)
			text = ""
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		logger.Warn("Page %d missing from page tree, treating as empty", num)
		return ""
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		logger.Warn("Page %d extraction failed, treating as empty: %v", num, err)
		return ""
	}
	return text
}
