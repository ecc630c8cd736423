package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policybot/internal/core/domain"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultCollection, cfg.Collection)
	assert.Equal(t, domain.AIProviderOllama, cfg.EmbeddingSettings().Provider)
	assert.Equal(t, domain.AIProviderOllama, cfg.LLMSettings().Provider)
	assert.Equal(t, domain.DefaultChunkSize, cfg.IngestSettings().ChunkSize)
	assert.Equal(t, domain.DefaultTopK, cfg.RetrievalSettings().TopK)
	assert.Equal(t, domain.DefaultMaxContextChars, cfg.RetrievalSettings().MaxContextChars)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir = "/var/lib/policybot"
collection = "hr_policies"

[embedding]
provider = "openai"
model = "text-embedding-3-small"
api_key = "sk-file"
requests_per_second = 2.5

[llm]
provider = "openai"
model = "gpt-4o-mini"
api_key = "sk-file"

[ingest]
chunk_size = 800
chunk_overlap = 100
batch_size = 16

[retrieval]
top_k = 3
max_context_chars = 6000
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/policybot", cfg.DataDir)
	assert.Equal(t, "hr_policies", cfg.Collection)

	embed := cfg.EmbeddingSettings()
	assert.Equal(t, domain.AIProviderOpenAI, embed.Provider)
	assert.Equal(t, "text-embedding-3-small", embed.Model)
	assert.Equal(t, "sk-file", embed.APIKey)
	assert.InDelta(t, 2.5, embed.RequestsPerSecond, 1e-9)
	assert.True(t, embed.IsConfigured())

	ingest := cfg.IngestSettings()
	assert.Equal(t, 800, ingest.ChunkSize)
	assert.Equal(t, 100, ingest.ChunkOverlap)
	assert.Equal(t, 16, ingest.BatchSize)

	retrieval := cfg.RetrievalSettings()
	assert.Equal(t, 3, retrieval.TopK)
	assert.Equal(t, 6000, retrieval.MaxContextChars)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("collection = [broken"), 0600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("POLICYBOT_EMBEDDING_API_KEY", "sk-env-embed")
	t.Setenv("POLICYBOT_LLM_API_KEY", "sk-env-llm")

	cfg := defaultConfig()
	cfg.Embedding.APIKey = "sk-file"
	cfg.LLM.APIKey = "sk-file"

	assert.Equal(t, "sk-env-embed", cfg.EmbeddingSettings().APIKey)
	assert.Equal(t, "sk-env-llm", cfg.LLMSettings().APIKey)
}
