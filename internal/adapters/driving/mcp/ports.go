// Package mcp exposes policybot over the Model Context Protocol so AI
// assistants can ask grounded policy questions and browse ingested documents.
package mcp

import (
	"errors"

	"github.com/custodia-labs/policybot/internal/core/ports/driven"
	"github.com/custodia-labs/policybot/internal/core/ports/driving"
)

// Ports holds the services the MCP server exposes.
type Ports struct {
	// Answerer produces grounded answers.
	Answerer driving.Answerer

	// Index lists ingested documents.
	Index driven.VectorIndex
}

// Validate checks that all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return errors.New("ports is nil")
	}
	if p.Answerer == nil {
		return errors.New("answerer is required")
	}
	if p.Index == nil {
		return errors.New("index is required")
	}
	return nil
}
