package cli

import (
	"github.com/spf13/cobra"
)

var (
	deleteCompanyID string
	deleteDocName   string
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a document's chunks from a company's collection",
	Long: `Removes all indexed chunks of one document. Use before re-ingesting
a changed document, or pass --overwrite to ingest instead.`,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteCompanyID, "company-id", "", "company id (required)")
	deleteCmd.Flags().StringVar(&deleteDocName, "doc-name", "", "document name (required)")
	cobra.CheckErr(deleteCmd.MarkFlagRequired("company-id"))
	cobra.CheckErr(deleteCmd.MarkFlagRequired("doc-name"))
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, _ []string) error {
	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := store.DeleteDocument(cmd.Context(), deleteCompanyID, deleteDocName)
	if err != nil {
		return err
	}

	if deleted == 0 {
		cmd.Printf("No chunks found for %s/%s.\n", deleteCompanyID, deleteDocName)
		return nil
	}
	cmd.Printf("Deleted %d chunks of %s/%s.\n", deleted, deleteCompanyID, deleteDocName)
	return nil
}
