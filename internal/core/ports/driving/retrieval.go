package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// RetrievalService selects context for a question with hybrid vector and keyword search.
type RetrievalService interface {
	// Retrieve returns the context for question within scope, keeping k chunks.
	// Returns domain.ErrInvalidQuery for k <= 0 or a blank question,
	// domain.ErrCollectionNotFound for a missing named collection, and
	// domain.ErrNoRelevantContext (with the partial Retrieval) when nothing usable was found.
	Retrieve(ctx context.Context, question string, scope domain.Scope, k int) (*domain.Retrieval, error)
}
