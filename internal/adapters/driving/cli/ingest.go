package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policybot/internal/adapters/driven/config/file"
	"github.com/custodia-labs/policybot/internal/core/domain"
	"github.com/custodia-labs/policybot/internal/core/ports/driving"
	"github.com/custodia-labs/policybot/internal/core/services"
	"github.com/custodia-labs/policybot/internal/extractors/pdf"
)

var (
	ingestCompanyID string
	ingestDocName   string
	ingestPDFPath   string
	ingestChunkSize int
	ingestOverlap   int
	ingestBatchSize int
	ingestOverwrite bool
	ingestJSON      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a policy PDF into a company's collection",
	Long: `Extracts text from a PDF, splits it into overlapping chunks, embeds
them and writes them to the company's vector index.

Re-ingesting a document that already exists fails unless --overwrite is
given, which replaces the document's existing chunks.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCompanyID, "company-id", "", "company id to ingest for (required)")
	ingestCmd.Flags().StringVar(&ingestDocName, "doc-name", "", "document name (default: PDF filename without extension)")
	ingestCmd.Flags().StringVar(&ingestPDFPath, "pdf-path", "", "path to the PDF file (required)")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, fmt.Sprintf("chunk size in characters (default %d)", domain.DefaultChunkSize))
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", 0, fmt.Sprintf("chunk overlap in characters (default %d)", domain.DefaultChunkOverlap))
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, fmt.Sprintf("embedding batch size (default %d)", domain.DefaultBatchSize))
	ingestCmd.Flags().BoolVar(&ingestOverwrite, "overwrite", false, "replace the document's existing chunks")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output result as JSON")
	cobra.CheckErr(ingestCmd.MarkFlagRequired("company-id"))
	cobra.CheckErr(ingestCmd.MarkFlagRequired("pdf-path"))
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(ingestPDFPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", ingestPDFPath, err)
	}

	docName := ingestDocName
	if docName == "" {
		base := filepath.Base(ingestPDFPath)
		docName = strings.TrimSuffix(base, filepath.Ext(base))
	}

	p, err := newPipeline(false)
	if err != nil {
		return err
	}
	defer p.Close()

	settings := ingestSettings(p.cfg)
	svc := services.NewIngestService(pdf.New(), p.embedder, p.store, p.store, settings)

	result, err := svc.Ingest(cmd.Context(), driving.IngestRequest{
		Tenant:     ingestCompanyID,
		DocName:    docName,
		Document:   data,
		SourceFile: filepath.Base(ingestPDFPath),
		Overwrite:  ingestOverwrite,
	})
	if err != nil {
		return err
	}

	if ingestJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling result: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	cmd.Printf("Ingested %s for %s: %d chunks into %s\n",
		result.DocName, result.Tenant, result.ChunksAdded, result.Collection)
	return nil
}

// ingestSettings merges config values with command-line overrides.
func ingestSettings(cfg *file.Config) domain.IngestSettings {
	settings := cfg.IngestSettings()
	if ingestChunkSize > 0 {
		settings.ChunkSize = ingestChunkSize
	}
	if ingestOverlap > 0 {
		settings.ChunkOverlap = ingestOverlap
	}
	if ingestBatchSize > 0 {
		settings.BatchSize = ingestBatchSize
	}
	return settings
}
