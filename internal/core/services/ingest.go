package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the write path: extract, chunk, embed and store.
type IngestService struct {
	extractor *Extractor
	chunker   driven.Chunker
	embedder  driven.EmbeddingService
	index     driven.IndexStore
	history   driven.HistoryStore
	chunkSize int
	now       func() time.Time
}

// NewIngestService creates a new ingest service.
// history is optional (can be nil). chunkSize is the default window when
// IngestOptions.ChunkSize is zero.
func NewIngestService(
	extractor *Extractor,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.IndexStore,
	history driven.HistoryStore,
	chunkSize int,
) *IngestService {
	return &IngestService{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		history:   history,
		chunkSize: chunkSize,
		now:       time.Now,
	}
}

// IngestFile reads path and ingests it under its base name.
func (s *IngestService) IngestFile(ctx context.Context, path string, opts domain.IngestOptions) (*domain.IngestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s.Ingest(ctx, domain.NewDocument(filepath.Base(path), data), opts)
}

// Ingest stores one document as a new collection.
// Content already ingested is reported as a duplicate and nothing is written.
// A batch rejected by the index leaves the collection as it was.
func (s *IngestService) Ingest(ctx context.Context, doc domain.Document, opts domain.IngestOptions) (*domain.IngestResult, error) {
	logger.Section("Ingest")

	if len(doc.Data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, doc.Name)
	}
	if doc.Hash == "" {
		doc.Hash = domain.ContentHash(doc.Data)
	}

	id := domain.CollectionID(doc.Name, doc.Hash)
	logger.Debug("Document %q -> collection %s", doc.Name, id)

	exists, err := s.index.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("checking collection %s: %w", id, err)
	}
	if exists {
		return s.duplicate(ctx, doc, id)
	}

	// Identity is the content hash; a renamed copy derives a different ID.
	dupID, found, err := s.findByHash(ctx, doc.Hash)
	if err != nil {
		return nil, err
	}
	if found {
		return s.duplicate(ctx, doc, dupID)
	}

	extraction, err := s.extractor.Extract(ctx, doc.Data, opts.Progress)
	if errors.Is(err, domain.ErrExtractionEmpty) {
		logger.Warn("No text extracted from %s, skipping", doc.Name)
		return nil, fmt.Errorf("%s: %w", doc.Name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", doc.Name, err)
	}

	size := opts.ChunkSize
	if size <= 0 {
		size = s.chunkSize
	}
	chunks := s.chunker.Chunk(doc.Hash, extraction.Text, size)
	logger.Debug("Chunked into %d chunks of up to %d tokens", len(chunks), size)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %s: %w", doc.Name, err)
	}
	logger.Debug("Embedded %d chunks with %s", len(vectors), s.embedder.ModelName())

	handle, err := s.index.Open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", id, err)
	}
	handle.SetMetadata(doc.Name, doc.Hash, s.embedder.ModelName())

	if err := handle.Add(ctx, chunks, vectors); err != nil {
		s.rollback(ctx, handle, id)
		return nil, fmt.Errorf("adding to collection %s: %w", id, err)
	}
	if err := handle.Persist(ctx); err != nil {
		s.rollback(ctx, handle, id)
		return nil, fmt.Errorf("persisting collection %s: %w", id, err)
	}

	result := &domain.IngestResult{
		Collection: handle.Info(),
		Pages:      len(extraction.Pages),
		OCRPages:   extraction.OCRPages(),
		Chunks:     len(chunks),
	}
	logger.Info("Ingested %s: %d pages (%d OCR), %d chunks", doc.Name, result.Pages, result.OCRPages, result.Chunks)

	s.record(ctx, doc, result)
	return result, nil
}

// rollback discards a failed ingest's rows so a retry starts clean.
func (s *IngestService) rollback(ctx context.Context, handle driven.CollectionHandle, id string) {
	if err := handle.Rollback(ctx); err != nil {
		logger.Error("rolling back collection %s: %v", id, err)
	}
}

// findByHash looks for a collection already holding content with this hash.
func (s *IngestService) findByHash(ctx context.Context, hash string) (string, bool, error) {
	collections, err := s.index.List(ctx)
	if err != nil {
		return "", false, fmt.Errorf("listing collections: %w", err)
	}
	for _, c := range collections {
		if c.ContentHash == hash {
			return c.ID, true, nil
		}
	}
	return "", false, nil
}

func (s *IngestService) duplicate(ctx context.Context, doc domain.Document, id string) (*domain.IngestResult, error) {
	logger.Info("Collection %s already holds this document, skipping", id)

	handle, err := s.index.Open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", id, err)
	}

	result := &domain.IngestResult{Collection: handle.Info(), Duplicate: true}
	s.record(ctx, doc, result)
	return result, nil
}

func (s *IngestService) record(ctx context.Context, doc domain.Document, result *domain.IngestResult) {
	if s.history == nil {
		return
	}

	err := s.history.RecordIngest(ctx, domain.IngestRecord{
		CollectionID: result.Collection.ID,
		Name:         doc.Name,
		ContentHash:  doc.Hash,
		Pages:        result.Pages,
		OCRPages:     result.OCRPages,
		Chunks:       result.Chunks,
		Duplicate:    result.Duplicate,
		IngestedAt:   s.now(),
	})
	if err != nil {
		logger.Warn("Failed to record ingest history: %v", err)
	}
}
