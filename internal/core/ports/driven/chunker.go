package driven

import "github.com/custodia-labs/manualqa/internal/core/domain"

// Chunker splits extracted text into retrieval units.
type Chunker interface {
	// Chunk splits text into windows of at most maxTokens whitespace-delimited tokens.
	// Empty or whitespace-only text yields no chunks.
	Chunk(documentID, text string, maxTokens int) []domain.Chunk

	// Name returns the chunker identifier.
	Name() string
}
