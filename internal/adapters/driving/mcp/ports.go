package mcp

import (
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval provides hybrid retrieval.
	Retrieval driving.RetrievalService

	// Answer answers questions from retrieved context.
	Answer driving.AnswerService

	// Collection lists ingested manuals.
	Collection driving.CollectionService

	// Ingest adds manuals.
	Ingest driving.IngestService

	// TopK is the default number of chunks when a tool call omits k.
	TopK int
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	// Answer, Collection and Ingest are optional; their tools report unavailability.
	return nil
}

// k returns the requested chunk count or the configured default.
func (p *Ports) k(requested int) int {
	if requested > 0 {
		return requested
	}
	if p.TopK > 0 {
		return p.TopK
	}
	return domain.DefaultTopK
}
