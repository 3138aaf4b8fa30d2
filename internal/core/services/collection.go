package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService exposes ingested collections.
type CollectionService struct {
	index driven.IndexStore
}

// NewCollectionService creates a new collection service.
func NewCollectionService(index driven.IndexStore) *CollectionService {
	return &CollectionService{index: index}
}

// List returns every collection ordered by ID.
func (s *CollectionService) List(ctx context.Context) ([]domain.Collection, error) {
	collections, err := s.index.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	return collections, nil
}

// Get returns one collection.
func (s *CollectionService) Get(ctx context.Context, id string) (*domain.Collection, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: collection id is required", domain.ErrInvalidInput)
	}

	exists, err := s.index.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("checking collection %s: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, id)
	}

	handle, err := s.index.Open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", id, err)
	}
	info := handle.Info()
	return &info, nil
}
