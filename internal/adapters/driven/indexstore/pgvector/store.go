package pgvector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS manualqa_collections (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL DEFAULT '',
	content_hash    TEXT NOT NULL DEFAULT '',
	embedding_model TEXT NOT NULL DEFAULT '',
	dimensions      INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS manualqa_chunks (
	collection_id TEXT NOT NULL REFERENCES manualqa_collections(id) ON DELETE CASCADE,
	seq           INTEGER NOT NULL,
	text          TEXT NOT NULL,
	embedding     vector NOT NULL,
	PRIMARY KEY (collection_id, seq)
);
`

// Store is a PostgreSQL-backed index store.
type Store struct {
	pool    *pgxpool.Pool
	mu      sync.Mutex
	handles map[string]*Collection
}

// NewStore connects to databaseURL and ensures the schema exists.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%w: database URL is required for the pgvector backend", domain.ErrInvalidInput)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexStoreUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexStoreUnavailable, err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("Connected to pgvector index store")
	return &Store{pool: pool, handles: make(map[string]*Collection)}, nil
}

// Open returns the collection handle, loading metadata when the row exists.
func (s *Store) Open(ctx context.Context, collectionID string) (driven.CollectionHandle, error) {
	if err := validateID(collectionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.handles[collectionID]; ok {
		return h, nil
	}

	h := &Collection{pool: s.pool, info: domain.Collection{ID: collectionID}}
	row := s.pool.QueryRow(ctx, `
		SELECT c.name, c.content_hash, c.embedding_model, c.dimensions, c.created_at,
		       (SELECT count(*) FROM manualqa_chunks k WHERE k.collection_id = c.id)
		FROM manualqa_collections c WHERE c.id = $1`, collectionID)

	var count int64
	err := row.Scan(&h.info.Name, &h.info.ContentHash, &h.info.EmbeddingModel,
		&h.info.Dimensions, &h.info.CreatedAt, &count)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("loading collection %s: %w", collectionID, err)
	default:
		h.info.Count = int(count)
	}

	s.handles[collectionID] = h
	return h, nil
}

// Exists reports whether the collection holds at least one chunk.
func (s *Store) Exists(ctx context.Context, collectionID string) (bool, error) {
	if err := validateID(collectionID); err != nil {
		return false, err
	}

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM manualqa_chunks WHERE collection_id = $1)`,
		collectionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking collection %s: %w", collectionID, err)
	}
	return exists, nil
}

// List returns collections that hold data, ordered by ID.
func (s *Store) List(ctx context.Context) ([]domain.Collection, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.name, c.content_hash, c.embedding_model, c.dimensions, c.created_at, count(k.seq)
		FROM manualqa_collections c
		JOIN manualqa_chunks k ON k.collection_id = c.id
		GROUP BY c.id
		ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	var collections []domain.Collection
	for rows.Next() {
		var c domain.Collection
		var count int64
		if err := rows.Scan(&c.ID, &c.Name, &c.ContentHash, &c.EmbeddingModel,
			&c.Dimensions, &c.CreatedAt, &count); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		c.Count = int(count)
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// validateID applies the same rules as the flat backend so IDs are portable.
func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: invalid collection id %q", domain.ErrInvalidInput, id)
	}
	return nil
}

// Ensure Collection implements the interface.
var _ driven.CollectionHandle = (*Collection)(nil)

// Collection is an open pgvector collection.
type Collection struct {
	pool *pgxpool.Pool
	mu   sync.RWMutex
	info domain.Collection
}

// Info returns the collection's metadata.
func (c *Collection) Info() domain.Collection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

// SetMetadata records source document details; stored on the next Add or Persist.
func (c *Collection) SetMetadata(name, contentHash, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info.Name = name
	c.info.ContentHash = contentHash
	c.info.EmbeddingModel = model
}

// checkBatch validates a batch against the collection and returns its dimensionality.
func (c *Collection) checkBatch(chunks []domain.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}
	dims := c.info.Dimensions
	if dims == 0 && len(vectors) > 0 {
		dims = len(vectors[0])
	}
	if len(vectors) > 0 && dims == 0 {
		return 0, fmt.Errorf("%w: empty vector", domain.ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != dims {
			return 0, fmt.Errorf("%w: vector %d has %d dimensions, collection has %d",
				domain.ErrDimensionMismatch, i, len(v), dims)
		}
	}
	return dims, nil
}

// Add inserts the batch in a single transaction.
func (c *Collection) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dims, err := c.checkBatch(chunks, vectors)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	info := c.info
	info.Dimensions = dims
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now()
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexStoreUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := upsertCollection(ctx, tx, info); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i := range chunks {
		batch.Queue(`INSERT INTO manualqa_chunks (collection_id, seq, text, embedding) VALUES ($1, $2, $3, $4)`,
			info.ID, info.Count+i, chunks[i].Text, pgv.NewVector(vectors[i]))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}

	info.Count += len(chunks)
	c.info = info
	return nil
}

// Search returns the k nearest chunks by L2 distance. Ties are broken by insertion order.
func (c *Collection) Search(ctx context.Context, query []float32, k int) ([]driven.IndexHit, error) {
	c.mu.RLock()
	info := c.info
	c.mu.RUnlock()

	if k <= 0 || info.Count == 0 {
		return nil, nil
	}
	if len(query) != info.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			domain.ErrDimensionMismatch, len(query), info.Dimensions)
	}

	rows, err := c.pool.Query(ctx, `
		SELECT text, embedding <-> $2 AS distance
		FROM manualqa_chunks
		WHERE collection_id = $1
		ORDER BY distance, seq
		LIMIT $3`, info.ID, pgv.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", info.ID, err)
	}
	defer rows.Close()

	var hits []driven.IndexHit
	for rows.Next() {
		var hit driven.IndexHit
		if err := rows.Scan(&hit.Text, &hit.Distance); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// Persist writes metadata. Chunks are already durable once Add returns.
func (c *Collection) Persist(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.info.Count == 0 {
		return nil
	}
	return upsertCollection(ctx, c.pool, c.info)
}

// Rollback has nothing to drop: each Add commits its own transaction.
func (c *Collection) Rollback(_ context.Context) error {
	return nil
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsertCollection(ctx context.Context, db execer, info domain.Collection) error {
	_, err := db.Exec(ctx, `
		INSERT INTO manualqa_collections (id, name, content_hash, embedding_model, dimensions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			content_hash = EXCLUDED.content_hash,
			embedding_model = EXCLUDED.embedding_model,
			dimensions = EXCLUDED.dimensions`,
		info.ID, info.Name, info.ContentHash, info.EmbeddingModel, info.Dimensions, info.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving collection %s: %w", info.ID, err)
	}
	return nil
}
