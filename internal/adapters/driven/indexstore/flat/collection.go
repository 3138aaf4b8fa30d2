package flat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Collection implements the interface.
var _ driven.CollectionHandle = (*Collection)(nil)

// Collection is an open flat collection. Rows in vectors and texts are parallel.
// Rows at or past committed exist only in memory until Persist.
type Collection struct {
	mu      sync.RWMutex
	dir     string
	info    domain.Collection
	vectors [][]float32
	texts   []string

	committed          int
	committedTextBytes int64
	committedInfo      domain.Collection
}

// loadCollection reads the committed state of dir. A missing manifest yields
// an empty collection. Bytes past the committed sizes are truncated away.
func loadCollection(dir, id string) (*Collection, error) {
	c := &Collection{dir: dir, info: domain.Collection{ID: id}}
	c.committedInfo = c.info

	m, err := readManifest(dir)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}

	c.info = m.toDomain()
	c.info.ID = id
	c.committedInfo = c.info

	if m.Count == 0 {
		return c, nil
	}

	vecPath := filepath.Join(dir, vectorsFile)
	vecSize := int64(vectorHeaderSize) + int64(m.Count)*int64(m.Dimensions)*4
	if err := truncateTo(vecPath, vecSize); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(vecPath)
	if err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	dims, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	if dims != m.Dimensions {
		return nil, fmt.Errorf("flat: header dimensions %d disagree with manifest %d", dims, m.Dimensions)
	}
	vectors, err := decodeVectors(data[vectorHeaderSize:], dims, m.Count)
	if err != nil {
		return nil, err
	}

	textPath := filepath.Join(dir, chunksFile)
	if err := truncateTo(textPath, m.TextBytes); err != nil {
		return nil, err
	}
	f, err := os.Open(textPath)
	if err != nil {
		return nil, fmt.Errorf("open chunks: %w", err)
	}
	defer f.Close()
	texts, err := decodeTexts(f, m.Count)
	if err != nil {
		return nil, err
	}

	c.vectors = vectors
	c.texts = texts
	c.committed = m.Count
	c.committedTextBytes = m.TextBytes
	return c, nil
}

// truncateTo drops bytes written after the last commit.
func truncateTo(path string, size int64) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	if st.Size() < size {
		return fmt.Errorf("flat: %s is %d bytes, manifest expects %d", filepath.Base(path), st.Size(), size)
	}
	if st.Size() > size {
		logger.Warn("Discarding %d uncommitted bytes from %s", st.Size()-size, path)
		if err := os.Truncate(path, size); err != nil {
			return fmt.Errorf("truncate %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// Info returns the collection's metadata.
func (c *Collection) Info() domain.Collection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info := c.info
	info.Count = len(c.texts)
	return info
}

// SetMetadata records source document details for the manifest.
func (c *Collection) SetMetadata(name, contentHash, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info.Name = name
	c.info.ContentHash = contentHash
	c.info.EmbeddingModel = model
}

// Add appends chunk/vector pairs. The batch is validated in full before any row
// is stored.
func (c *Collection) Add(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dims := c.info.Dimensions
	if dims == 0 {
		dims = len(vectors[0])
	}
	if dims == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("%w: vector %d has %d dimensions, collection has %d",
				domain.ErrDimensionMismatch, i, len(v), dims)
		}
	}

	c.info.Dimensions = dims
	if c.info.CreatedAt.IsZero() {
		c.info.CreatedAt = time.Now()
	}
	for i := range chunks {
		row := make([]float32, dims)
		copy(row, vectors[i])
		c.vectors = append(c.vectors, row)
		c.texts = append(c.texts, chunks[i].Text)
	}
	return nil
}

// Search scans every row and returns the k closest by L2 distance.
// Ties keep insertion order.
func (c *Collection) Search(_ context.Context, query []float32, k int) ([]driven.IndexHit, error) {
	if k <= 0 {
		return nil, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.vectors) == 0 {
		return nil, nil
	}
	if len(query) != c.info.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			domain.ErrDimensionMismatch, len(query), c.info.Dimensions)
	}

	hits := make([]driven.IndexHit, len(c.vectors))
	for i, v := range c.vectors {
		hits[i] = driven.IndexHit{Text: c.texts[i], Distance: l2(query, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Persist appends uncommitted rows to the data files, syncs them, then
// replaces the manifest. A crash before the rename leaves the previous commit.
func (c *Collection) Persist(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0700); err != nil {
		return fmt.Errorf("creating collection directory: %w", err)
	}

	pending := len(c.texts) - c.committed
	textBytes := c.committedTextBytes
	if pending > 0 {
		if c.committed > 0 {
			if err := c.rewindLocked(); err != nil {
				return err
			}
		}
		vecData := encodeVectors(c.vectors[c.committed:])
		if c.committed == 0 {
			vecData = append(encodeHeader(c.info.Dimensions), vecData...)
			if err := writeFresh(filepath.Join(c.dir, vectorsFile)); err != nil {
				return err
			}
		}
		if err := appendSync(filepath.Join(c.dir, vectorsFile), vecData); err != nil {
			return err
		}

		textData, err := encodeTexts(c.texts[c.committed:])
		if err != nil {
			return err
		}
		if c.committed == 0 {
			if err := writeFresh(filepath.Join(c.dir, chunksFile)); err != nil {
				return err
			}
		}
		if err := appendSync(filepath.Join(c.dir, chunksFile), textData); err != nil {
			return err
		}
		textBytes += int64(len(textData))
	}

	now := time.Now()
	if c.info.CreatedAt.IsZero() {
		c.info.CreatedAt = now
	}
	m := &manifest{
		ID:             c.info.ID,
		Name:           c.info.Name,
		ContentHash:    c.info.ContentHash,
		EmbeddingModel: c.info.EmbeddingModel,
		Dimensions:     c.info.Dimensions,
		Count:          len(c.texts),
		TextBytes:      textBytes,
		CreatedAt:      c.info.CreatedAt,
		UpdatedAt:      now,
	}
	if err := writeManifest(c.dir, m); err != nil {
		return err
	}

	c.committed = len(c.texts)
	c.committedTextBytes = textBytes
	c.committedInfo = c.info
	logger.Debug("Persisted collection %s (%d chunks, %d new)", c.info.ID, m.Count, pending)
	return nil
}

// Rollback drops rows added since the last Persist and restores the committed
// dimensionality. Bytes a failed Persist left on disk are rewound by the next
// Persist or load.
func (c *Collection) Rollback(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := len(c.texts) - c.committed
	if dropped <= 0 {
		return nil
	}
	c.vectors = c.vectors[:c.committed:c.committed]
	c.texts = c.texts[:c.committed:c.committed]
	c.info.Dimensions = c.committedInfo.Dimensions
	c.info.CreatedAt = c.committedInfo.CreatedAt
	logger.Debug("Rolled back %d uncommitted chunks from %s", dropped, c.info.ID)
	return nil
}

// rewindLocked drops bytes left behind by a failed Persist.
func (c *Collection) rewindLocked() error {
	vecSize := int64(vectorHeaderSize) + int64(c.committed)*int64(c.info.Dimensions)*4
	if err := truncateTo(filepath.Join(c.dir, vectorsFile), vecSize); err != nil {
		return err
	}
	return truncateTo(filepath.Join(c.dir, chunksFile), c.committedTextBytes)
}

// writeFresh truncates any leftover file from an uncommitted first write.
func writeFresh(path string) error {
	if err := os.WriteFile(path, nil, 0600); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	return nil
}

// appendSync appends data to path and fsyncs it.
func appendSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
