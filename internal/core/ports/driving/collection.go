package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// CollectionService exposes the ingested collections.
type CollectionService interface {
	// List returns every collection.
	List(ctx context.Context) ([]domain.Collection, error)

	// Get returns one collection or domain.ErrCollectionNotFound.
	Get(ctx context.Context, id string) (*domain.Collection, error)
}
