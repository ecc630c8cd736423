package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/policybot/internal/core/ports/driving"
)

// AskPolicyInput is the input schema for the ask_policy tool.
type AskPolicyInput struct {
	CompanyID string `json:"company_id" jsonschema:"the company whose policies to consult"`
	Question  string `json:"question" jsonschema:"the policy question to answer"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"number of policy chunks to retrieve (default from config)"`
}

// AskPolicyOutput is the output schema for the ask_policy tool.
type AskPolicyOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources,omitempty"`
}

// SourceOutput is one retrieved chunk's provenance.
type SourceOutput struct {
	DocName    string  `json:"doc_name"`
	ChunkIdx   int     `json:"chunk_idx"`
	SourceFile string  `json:"source_file,omitempty"`
	Score      float64 `json:"score"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	CompanyID string `json:"company_id" jsonschema:"the company whose documents to list"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput represents one ingested document.
type DocumentOutput struct {
	DocName        string `json:"doc_name"`
	ChunkCount     int    `json:"chunk_count"`
	LastIngestedAt string `json:"last_ingested_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_policy",
		Description: "Answer a question about a company's policies, grounded in its ingested documents",
	}, s.handleAskPolicy)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List a company's ingested policy documents",
	}, s.handleListDocuments)
}

// handleAskPolicy handles the ask_policy tool invocation.
func (s *Server) handleAskPolicy(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskPolicyInput,
) (*mcp.CallToolResult, AskPolicyOutput, error) {
	result, err := s.ports.Answerer.Answer(ctx, driving.AnswerRequest{
		Tenant:      input.CompanyID,
		Question:    input.Question,
		TopK:        input.TopK,
		WantSources: true,
	})
	if err != nil {
		return nil, AskPolicyOutput{}, err
	}

	output := AskPolicyOutput{
		Answer:  result.Answer,
		Sources: make([]SourceOutput, len(result.Sources)),
	}
	for i, src := range result.Sources {
		output.Sources[i] = SourceOutput{
			DocName:    src.DocName,
			ChunkIdx:   src.Ordinal,
			SourceFile: src.SourceFile,
			Score:      src.Score,
		}
	}

	return nil, output, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Index.ListDocuments(ctx, input.CompanyID)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i, doc := range docs {
		output.Documents[i] = DocumentOutput{
			DocName:        doc.DocName,
			ChunkCount:     doc.ChunkCount,
			LastIngestedAt: doc.LastIngestedAt.Format("2006-01-02 15:04:05"),
		}
	}

	return nil, output, nil
}
