package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// IndexStore persists chunk text and vectors, one collection per ingested document.
// Collections are independent: a query against one never sees another's chunks.
//
// Implementations:
//   - flat: a directory per collection holding a vector file and a parallel text list
//   - pgvector: PostgreSQL tables using the vector extension
type IndexStore interface {
	// Open returns a handle to the collection, creating an empty one if absent.
	// The collection is not visible to Exists or List until it holds data.
	Open(ctx context.Context, collectionID string) (CollectionHandle, error)

	// Exists reports whether a collection with persisted data exists.
	Exists(ctx context.Context, collectionID string) (bool, error)

	// List returns every persisted collection, ordered by ID.
	List(ctx context.Context) ([]domain.Collection, error)

	// Close releases resources.
	Close() error
}

// CollectionHandle is an open collection.
// Mutation is append-only: chunks are never updated or removed individually.
type CollectionHandle interface {
	// Info returns the collection's current metadata.
	Info() domain.Collection

	// SetMetadata records the source document's name, hash and embedding model.
	// It takes effect on the next Add or Persist.
	SetMetadata(name, contentHash, model string)

	// Add appends chunks with their vectors. len(chunks) must equal len(vectors).
	// Every vector must match the collection's dimensionality; the first Add fixes it.
	// A rejected batch leaves the collection unchanged (domain.ErrDimensionMismatch).
	Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error

	// Search returns up to k nearest chunks by L2 distance, closest first.
	// Fewer than k results are returned when the collection is smaller.
	Search(ctx context.Context, query []float32, k int) ([]IndexHit, error)

	// Persist flushes pending writes to stable storage.
	Persist(ctx context.Context) error

	// Rollback drops rows added since the last successful Persist, so a failed
	// ingest can be retried without storing its chunks twice. Backends whose
	// Add is already durable have nothing to drop.
	Rollback(ctx context.Context) error
}

// IndexHit is one vector search result.
type IndexHit struct {
	// Text is the stored chunk text.
	Text string

	// Distance is the L2 distance to the query.
	Distance float64
}
