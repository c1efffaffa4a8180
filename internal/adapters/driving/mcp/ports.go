package mcp

import (
	"github.com/arkive-labs/docchat/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search answers vector similarity queries against the index.
	Search driving.Searcher

	// Chat runs the full retrieval-augmented conversation loop.
	Chat driving.Chatter

	// Documents manages the ingested document records.
	Documents driving.Ingestor
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearcher
	}
	// Chat and Documents are optional; their tools and resources
	// are simply not registered when absent.
	return nil
}
