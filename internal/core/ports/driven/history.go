package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// HistoryStore records asked questions and ingest attempts.
type HistoryStore interface {
	// RecordQuery stores a question with its answer.
	RecordQuery(ctx context.Context, record domain.QueryRecord) error

	// RecentQueries returns the latest records, newest first.
	RecentQueries(ctx context.Context, limit int) ([]domain.QueryRecord, error)

	// RecordIngest stores an ingest attempt.
	RecordIngest(ctx context.Context, record domain.IngestRecord) error

	// RecentIngests returns the latest ingest records, newest first.
	RecentIngests(ctx context.Context, limit int) ([]domain.IngestRecord, error)
}
