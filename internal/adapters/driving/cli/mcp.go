package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policybot/internal/adapters/driving/mcp"
	"github.com/custodia-labs/policybot/internal/core/services"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default, for Claude Desktop)
  policybot mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  policybot mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	p, err := newPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	retrieval := p.cfg.RetrievalSettings()
	retriever := services.NewRetrieveService(p.embedder, p.store, retrieval)
	answerer := services.NewAnswerService(retriever, p.llm, p.prompts, retrieval)

	server, err := mcp.NewServer(&mcp.Ports{
		Answerer: answerer,
		Index:    p.store,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
