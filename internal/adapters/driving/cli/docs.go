package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	docsCompanyID string
	docsJSON      bool
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List a company's ingested documents",
	RunE:  runDocs,
}

func init() {
	docsCmd.Flags().StringVar(&docsCompanyID, "company-id", "", "company id to list (required)")
	docsCmd.Flags().BoolVar(&docsJSON, "json", false, "output as JSON")
	cobra.CheckErr(docsCmd.MarkFlagRequired("company-id"))
	rootCmd.AddCommand(docsCmd)
}

func runDocs(cmd *cobra.Command, _ []string) error {
	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := store.ListDocuments(cmd.Context(), docsCompanyID)
	if err != nil {
		return err
	}

	if docsJSON {
		out, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling documents: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	if len(docs) == 0 {
		cmd.Printf("No documents ingested for %s.\n", docsCompanyID)
		return nil
	}

	cmd.Printf("Documents for %s:\n", docsCompanyID)
	for _, doc := range docs {
		cmd.Printf("  %s  (%d chunks, last ingested %s)\n",
			doc.DocName, doc.ChunkCount, doc.LastIngestedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
