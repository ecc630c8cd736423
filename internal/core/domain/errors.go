package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors. All errors below are
// terminal for the current request: the core never retries or recovers
// silently; recovery is the surrounding operational layer's concern.
var (
	// ErrInvalidInput indicates malformed or invalid input
	// (empty tenant, empty question, empty document name).
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtraction indicates the source document could not be opened or
	// read at all (corrupt file, wrong format).
	ErrExtraction = errors.New("document extraction failed")

	// ErrNoTextExtracted indicates extraction succeeded but yielded no
	// usable text. Likely a scanned/image-only document that needs OCR,
	// which policybot does not perform.
	ErrNoTextExtracted = errors.New("no text extracted from document")

	// ErrChunkConfig indicates invalid chunking parameters
	// (overlap >= chunk size, or a non-positive chunk size).
	ErrChunkConfig = errors.New("invalid chunking configuration")

	// ErrNoChunks indicates chunking produced zero chunks from non-empty
	// text. Unreachable given the splitter's contract; guards against
	// future splitter changes.
	ErrNoChunks = errors.New("chunking produced no chunks")

	// ErrModelMismatch indicates the embedding model identity or
	// dimensionality disagrees with what the collection was created with.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrDuplicateChunk indicates a write collided with existing chunk ids.
	// Re-ingesting a document requires an explicit delete first.
	ErrDuplicateChunk = errors.New("chunk id already exists")

	// ErrIndexUnavailable indicates the vector index is unreachable.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrEmbeddingUnavailable indicates the embedding backend could not be
	// created or is unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM backend could not be created or
	// is unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrGeneration indicates the language-model backend is unreachable or
	// returned unusable output. Never substituted with a fabricated answer.
	ErrGeneration = errors.New("answer generation failed")
)
