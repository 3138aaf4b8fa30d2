package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// defaultLimit matches the SQLite store.
const defaultLimit = 20

// HistoryStore keeps query and ingest records in memory.
type HistoryStore struct {
	mu      sync.RWMutex
	queries []domain.QueryRecord
	ingests []domain.IngestRecord
	nextID  int64
}

// NewHistoryStore creates an empty in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// RecordQuery stores a query record and assigns its ID.
func (s *HistoryStore) RecordQuery(_ context.Context, record domain.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	record.ID = s.nextID
	if record.AskedAt.IsZero() {
		record.AskedAt = time.Now()
	}
	s.queries = append(s.queries, record)
	return nil
}

// RecentQueries returns up to limit query records, newest first.
func (s *HistoryStore) RecentQueries(_ context.Context, limit int) ([]domain.QueryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.queries, limit), nil
}

// RecordIngest stores an ingest record.
func (s *HistoryStore) RecordIngest(_ context.Context, record domain.IngestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.IngestedAt.IsZero() {
		record.IngestedAt = time.Now()
	}
	s.ingests = append(s.ingests, record)
	return nil
}

// RecentIngests returns up to limit ingest records, newest first.
func (s *HistoryStore) RecentIngests(_ context.Context, limit int) ([]domain.IngestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.ingests, limit), nil
}

func newestFirst[T any](records []T, limit int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	n := min(limit, len(records))
	out := make([]T, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, records[i])
	}
	return out
}
