package services

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService reads the question and ingest logs.
type HistoryService struct {
	store driven.HistoryStore
}

// NewHistoryService creates a new history service. store may be nil.
func NewHistoryService(store driven.HistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

// Recent returns the latest questions, newest first.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]domain.QueryRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.RecentQueries(ctx, limit)
}

// RecentIngests returns the latest ingest attempts, newest first.
func (s *HistoryService) RecentIngests(ctx context.Context, limit int) ([]domain.IngestRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.RecentIngests(ctx, limit)
}
