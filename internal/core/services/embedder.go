package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure SharedEmbedder implements the interface.
var _ driven.EmbeddingService = (*SharedEmbedder)(nil)

// EmbedderBuilder constructs the underlying embedding service.
type EmbedderBuilder func() (driven.EmbeddingService, error)

// SharedEmbedder builds its embedding service on first use and reuses it for
// every later call, so ingest and query share one model instance.
// A construction failure is remembered and returned on every call.
type SharedEmbedder struct {
	build EmbedderBuilder

	once sync.Once
	svc  driven.EmbeddingService
	err  error
}

// NewSharedEmbedder wraps build. Nothing is constructed until the first call.
func NewSharedEmbedder(build EmbedderBuilder) *SharedEmbedder {
	return &SharedEmbedder{build: build}
}

func (e *SharedEmbedder) get() (driven.EmbeddingService, error) {
	e.once.Do(func() {
		if e.build == nil {
			e.err = fmt.Errorf("%w: no embedder configured", domain.ErrEmbeddingUnavailable)
			return
		}
		e.svc, e.err = e.build()
		if e.err == nil && e.svc == nil {
			e.err = fmt.Errorf("%w: builder returned no service", domain.ErrEmbeddingUnavailable)
		}
		if e.err != nil {
			logger.Warn("Embedding service initialisation failed: %v", e.err)
			return
		}
		logger.Debug("Embedding service ready: %s (%d dims)", e.svc.ModelName(), e.svc.Dimensions())
	})
	return e.svc, e.err
}

// Embed generates an embedding for text.
func (e *SharedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	svc, err := e.get()
	if err != nil {
		return nil, err
	}
	return svc.Embed(ctx, text)
}

// EmbedBatch generates embeddings for texts.
func (e *SharedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	svc, err := e.get()
	if err != nil {
		return nil, err
	}
	return svc.EmbedBatch(ctx, texts)
}

// Dimensions returns the vector size, or 0 when construction failed.
func (e *SharedEmbedder) Dimensions() int {
	svc, err := e.get()
	if err != nil {
		return 0
	}
	return svc.Dimensions()
}

// ModelName returns the model name, or "" when construction failed.
func (e *SharedEmbedder) ModelName() string {
	svc, err := e.get()
	if err != nil {
		return ""
	}
	return svc.ModelName()
}

// Ping checks the underlying service.
func (e *SharedEmbedder) Ping(ctx context.Context) error {
	svc, err := e.get()
	if err != nil {
		return err
	}
	return svc.Ping(ctx)
}

// Close releases the underlying service if it was ever built.
// It does not trigger construction.
func (e *SharedEmbedder) Close() error {
	e.once.Do(func() {
		e.err = fmt.Errorf("%w: embedder closed", domain.ErrEmbeddingUnavailable)
	})
	if e.svc == nil {
		return nil
	}
	return e.svc.Close()
}
