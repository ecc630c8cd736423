package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// The same provider and model must serve both ingestion and querying; a
// silent swap corrupts retrieval without a typed error. The vector index
// pins ModelName and Dimensions per collection so a detectable mismatch
// fails with domain.ErrModelMismatch.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, one vector per
	// input, order-preserving. More efficient than calling Embed in a loop.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// This is determined by the model and must match the collection.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test
	// request. Used at startup before committing to ingestion or querying.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
