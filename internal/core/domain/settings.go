package domain

const unknownDescription = "Unknown"

// Default tuning values.
const (
	// DefaultChunkSize is the chunk window size in characters.
	DefaultChunkSize = 1200

	// DefaultChunkOverlap is the overlap between consecutive chunks.
	DefaultChunkOverlap = 200

	// DefaultBatchSize is the embedding batch size during ingestion.
	// Batching exists for throughput and memory stability only; batch
	// boundaries never affect output ordering or values.
	DefaultBatchSize = 32

	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 5

	// DefaultMaxContextChars bounds the assembled context block.
	DefaultMaxContextChars = 12000

	// DefaultCollection is the vector index collection name.
	DefaultCollection = "company_policies"
)

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
// The same provider and model must serve both ingestion and querying;
// the vector index pins the model identity per collection and rejects
// mismatches with ErrModelMismatch.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int

	// RequestsPerSecond rate-limits outbound embedding calls during batch
	// ingestion. Zero disables limiting.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds language-model backend configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IngestSettings holds chunking and embedding-batch tuning for ingestion.
type IngestSettings struct {
	// ChunkSize is the chunk window size in characters.
	ChunkSize int

	// ChunkOverlap is the overlap between consecutive chunks.
	// Must be smaller than ChunkSize.
	ChunkOverlap int

	// BatchSize is the embedding batch size.
	BatchSize int
}

// Normalised returns the settings with zero values replaced by defaults.
// It does not validate; the splitter rejects overlap >= size at call time.
func (s IngestSettings) Normalised() IngestSettings {
	if s.ChunkSize <= 0 {
		// Overlap of 0 is a valid explicit choice, so it only defaults
		// together with the chunk size.
		s.ChunkSize = DefaultChunkSize
		if s.ChunkOverlap == 0 {
			s.ChunkOverlap = DefaultChunkOverlap
		}
	}
	if s.BatchSize <= 0 {
		s.BatchSize = DefaultBatchSize
	}
	return s
}

// RetrievalSettings holds query-time tuning.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// MaxContextChars bounds the assembled context block.
	MaxContextChars int
}

// Normalised returns the settings with zero values replaced by defaults.
func (s RetrievalSettings) Normalised() RetrievalSettings {
	if s.TopK <= 0 {
		s.TopK = DefaultTopK
	}
	if s.MaxContextChars <= 0 {
		s.MaxContextChars = DefaultMaxContextChars
	}
	return s
}
