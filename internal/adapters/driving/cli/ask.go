package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policybot/internal/core/ports/driving"
	"github.com/custodia-labs/policybot/internal/core/services"
)

var (
	askCompanyID string
	askTopK      int
	askSources   bool
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about a company's policies",
	Long: `Retrieves the most relevant policy chunks for the company and asks
the LLM to answer strictly from them. When the documents don't contain
the answer, the assistant says so instead of guessing.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askCompanyID, "company-id", "", "company id to answer for (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "show the retrieved sources")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output result as JSON")
	cobra.CheckErr(askCmd.MarkFlagRequired("company-id"))
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	p, err := newPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	retrieval := p.cfg.RetrievalSettings()
	retriever := services.NewRetrieveService(p.embedder, p.store, retrieval)
	answerer := services.NewAnswerService(retriever, p.llm, p.prompts, retrieval)

	result, err := answerer.Answer(cmd.Context(), driving.AnswerRequest{
		Tenant:      askCompanyID,
		Question:    question,
		TopK:        askTopK,
		WantSources: askSources || askJSON,
	})
	if err != nil {
		return err
	}

	if askJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling result: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	cmd.Println(result.Answer)

	if askSources && len(result.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range result.Sources {
			line := fmt.Sprintf("  %s | chunk %d", src.DocName, src.Ordinal)
			if src.SourceFile != "" {
				line += fmt.Sprintf(" | %s", src.SourceFile)
			}
			cmd.Printf("%s (%.3f)\n", line, src.Score)
		}
	}
	return nil
}
