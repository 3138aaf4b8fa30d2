package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// IngestService turns PDF manuals into persisted collections.
type IngestService interface {
	// Ingest extracts, chunks, embeds and stores one document.
	// Byte-identical content already ingested is skipped (Duplicate is set).
	// Returns domain.ErrExtractionEmpty when no page yields text.
	Ingest(ctx context.Context, doc domain.Document, opts domain.IngestOptions) (*domain.IngestResult, error)

	// IngestFile reads path and ingests it under its base name.
	IngestFile(ctx context.Context, path string, opts domain.IngestOptions) (*domain.IngestResult, error)
}
