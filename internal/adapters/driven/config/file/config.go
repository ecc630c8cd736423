// Package file provides file-based configuration and prompt storage.
// Configuration is a TOML file, prompts are user-editable text files with
// embedded defaults.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/policybot/internal/core/domain"
)

// Config is the on-disk configuration, read from a TOML file.
type Config struct {
	// DataDir is where the vector index databases live.
	// Defaults to ~/.policybot/data.
	DataDir string `toml:"data_dir"`

	// Collection is the vector index collection name.
	Collection string `toml:"collection"`

	// PromptDir holds user-editable prompt templates.
	// Defaults to ~/.policybot/prompts.
	PromptDir string `toml:"prompt_dir"`

	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Ingest    IngestConfig    `toml:"ingest"`
	Retrieval RetrievalConfig `toml:"retrieval"`
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	Provider          string  `toml:"provider"`
	Model             string  `toml:"model"`
	BaseURL           string  `toml:"base_url"`
	APIKey            string  `toml:"api_key"`
	Dimensions        int     `toml:"dimensions"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LLMConfig configures the language-model backend.
type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
}

// IngestConfig tunes chunking and embedding batches.
type IngestConfig struct {
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
	BatchSize    int `toml:"batch_size"`
}

// RetrievalConfig tunes query-time behaviour.
type RetrievalConfig struct {
	TopK            int `toml:"top_k"`
	MaxContextChars int `toml:"max_context_chars"`
}

// DefaultPath returns the default config file location,
// ~/.policybot/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".policybot", "config.toml"), nil
}

// Load reads the config file at path. A missing file is not an error: the
// zero config with defaults applies. If path is empty, DefaultPath is used.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// defaultConfig returns a config with the built-in defaults filled in.
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills unset fields with defaults.
func (c *Config) applyDefaults() {
	if c.Collection == "" {
		c.Collection = domain.DefaultCollection
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = domain.AIProviderOllama.String()
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = domain.AIProviderOllama.String()
	}
}

// EmbeddingSettings converts the embedding section to domain settings.
// API keys may also come from the environment (POLICYBOT_EMBEDDING_API_KEY),
// which takes precedence over the file so keys can stay out of it.
func (c *Config) EmbeddingSettings() domain.EmbeddingSettings {
	apiKey := c.Embedding.APIKey
	if env := os.Getenv("POLICYBOT_EMBEDDING_API_KEY"); env != "" {
		apiKey = env
	}

	return domain.EmbeddingSettings{
		Provider:          domain.AIProvider(c.Embedding.Provider),
		Model:             c.Embedding.Model,
		BaseURL:           c.Embedding.BaseURL,
		APIKey:            apiKey,
		Dimensions:        c.Embedding.Dimensions,
		RequestsPerSecond: c.Embedding.RequestsPerSecond,
	}
}

// LLMSettings converts the llm section to domain settings.
// POLICYBOT_LLM_API_KEY overrides the file value.
func (c *Config) LLMSettings() domain.LLMSettings {
	apiKey := c.LLM.APIKey
	if env := os.Getenv("POLICYBOT_LLM_API_KEY"); env != "" {
		apiKey = env
	}

	return domain.LLMSettings{
		Provider: domain.AIProvider(c.LLM.Provider),
		Model:    c.LLM.Model,
		BaseURL:  c.LLM.BaseURL,
		APIKey:   apiKey,
	}
}

// IngestSettings converts the ingest section to domain settings.
func (c *Config) IngestSettings() domain.IngestSettings {
	return domain.IngestSettings{
		ChunkSize:    c.Ingest.ChunkSize,
		ChunkOverlap: c.Ingest.ChunkOverlap,
		BatchSize:    c.Ingest.BatchSize,
	}.Normalised()
}

// RetrievalSettings converts the retrieval section to domain settings.
func (c *Config) RetrievalSettings() domain.RetrievalSettings {
	return domain.RetrievalSettings{
		TopK:            c.Retrieval.TopK,
		MaxContextChars: c.Retrieval.MaxContextChars,
	}.Normalised()
}
