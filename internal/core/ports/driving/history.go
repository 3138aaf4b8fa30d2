package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// HistoryService reads the question and ingest logs.
type HistoryService interface {
	// Recent returns the latest questions, newest first.
	Recent(ctx context.Context, limit int) ([]domain.QueryRecord, error)

	// RecentIngests returns the latest ingest attempts, newest first.
	RecentIngests(ctx context.Context, limit int) ([]domain.IngestRecord, error)
}
