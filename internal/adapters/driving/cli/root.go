// Package cli implements the policybot command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policybot/internal/adapters/driven/ai"
	"github.com/custodia-labs/policybot/internal/adapters/driven/config/file"
	"github.com/custodia-labs/policybot/internal/adapters/driven/index/sqlite"
	"github.com/custodia-labs/policybot/internal/core/ports/driven"
	"github.com/custodia-labs/policybot/internal/logger"
)

// version is set at build time via -ldflags.
var version = "0.1.0"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "policybot",
	Short: "Grounded Q&A over company policy documents",
	Long: `Policybot ingests company policy PDFs into a per-tenant vector index
and answers employee questions grounded strictly in the indexed documents.

Each company's documents are isolated by company id: questions only ever
retrieve from the asking company's collection.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.policybot/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error("%v", err)
	}
	return err
}

// pipeline bundles the wired backends a command needs. Close releases them.
type pipeline struct {
	cfg      *file.Config
	store    *sqlite.Store
	embedder driven.EmbeddingService
	llm      driven.LLMService
	prompts  *file.PromptStore
}

// Close releases all resources held by the pipeline.
func (p *pipeline) Close() {
	if p.llm != nil {
		p.llm.Close()
	}
	if p.embedder != nil {
		p.embedder.Close()
	}
	if p.prompts != nil {
		p.prompts.Close()
	}
	if p.store != nil {
		p.store.Close()
	}
}

// openStore loads the config and opens the vector index.
func openStore() (*sqlite.Store, *file.Config, error) {
	cfg, err := file.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	store, err := sqlite.NewStore(cfg.DataDir, cfg.Collection)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

// newPipeline wires the store and the embedding backend, plus the LLM and
// prompt store when the command generates answers.
func newPipeline(needLLM bool) (*pipeline, error) {
	store, cfg, err := openStore()
	if err != nil {
		return nil, err
	}
	p := &pipeline{cfg: cfg, store: store}

	embedSettings := cfg.EmbeddingSettings()
	p.embedder, err = ai.CreateAndValidateEmbeddingService(&embedSettings)
	if err != nil {
		p.Close()
		return nil, err
	}
	logger.Debug("embedding: %s (%d dims)", p.embedder.ModelName(), p.embedder.Dimensions())

	if needLLM {
		llmSettings := cfg.LLMSettings()
		p.llm, err = ai.CreateAndValidateLLMService(&llmSettings)
		if err != nil {
			p.Close()
			return nil, err
		}
		logger.Debug("llm: %s", p.llm.ModelName())

		p.prompts, err = file.NewPromptStore(cfg.PromptDir)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("creating prompt store: %w", err)
		}
	}

	return p, nil
}
