package flat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// File names inside a collection directory.
const (
	manifestFile = "manifest.yaml"
	vectorsFile  = "vectors.bin"
	chunksFile   = "chunks.jsonl"
)

// manifest is the committed state of a collection.
type manifest struct {
	ID             string    `yaml:"id"`
	Name           string    `yaml:"name,omitempty"`
	ContentHash    string    `yaml:"content_hash,omitempty"`
	EmbeddingModel string    `yaml:"embedding_model,omitempty"`
	Dimensions     int       `yaml:"dimensions"`
	Count          int       `yaml:"count"`
	TextBytes      int64     `yaml:"text_bytes"`
	CreatedAt      time.Time `yaml:"created_at"`
	UpdatedAt      time.Time `yaml:"updated_at"`
}

// Store keeps one directory per collection under root.
// Handles are cached so that every Open of the same ID shares state.
type Store struct {
	root    string
	mu      sync.Mutex
	handles map[string]*Collection
}

// NewStore creates a flat store rooted at dir.
// If dir is empty, defaults to ~/.manualqa/collections.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".manualqa", "collections")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating collections directory: %w", err)
	}

	return &Store{
		root:    dir,
		handles: make(map[string]*Collection),
	}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Open returns the collection, loading committed data from disk if present.
// Nothing is written until the first Persist.
func (s *Store) Open(_ context.Context, collectionID string) (driven.CollectionHandle, error) {
	if err := validateID(collectionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.handles[collectionID]; ok {
		return h, nil
	}

	h, err := loadCollection(filepath.Join(s.root, collectionID), collectionID)
	if err != nil {
		return nil, err
	}
	s.handles[collectionID] = h
	return h, nil
}

// Exists reports whether the collection has a committed manifest.
func (s *Store) Exists(_ context.Context, collectionID string) (bool, error) {
	if err := validateID(collectionID); err != nil {
		return false, err
	}

	_, err := os.Stat(filepath.Join(s.root, collectionID, manifestFile))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat manifest: %w", err)
}

// List returns every committed collection ordered by ID.
func (s *Store) List(_ context.Context) ([]domain.Collection, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading collections directory: %w", err)
	}

	collections := make([]domain.Collection, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m, err := readManifest(filepath.Join(s.root, entry.Name()))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			logger.Warn("Skipping collection %s: %v", entry.Name(), err)
			continue
		}
		collections = append(collections, m.toDomain())
	}

	sort.Slice(collections, func(i, j int) bool {
		return collections[i].ID < collections[j].ID
	})
	return collections, nil
}

// Close drops cached handles. Uncommitted additions are discarded.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles = make(map[string]*Collection)
	return nil
}

// validateID rejects IDs that are not a single safe path element.
func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: invalid collection id %q", domain.ErrInvalidInput, id)
	}
	return nil
}

// readManifest loads manifest.yaml from dir.
func readManifest(dir string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// writeManifest atomically replaces manifest.yaml in dir.
func writeManifest(dir string, m *manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	tmp := filepath.Join(dir, manifestFile+".tmp")
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, manifestFile)); err != nil {
		return fmt.Errorf("commit manifest: %w", err)
	}
	return nil
}

func (m *manifest) toDomain() domain.Collection {
	return domain.Collection{
		ID:             m.ID,
		Name:           m.Name,
		ContentHash:    m.ContentHash,
		Dimensions:     m.Dimensions,
		Count:          m.Count,
		EmbeddingModel: m.EmbeddingModel,
		CreatedAt:      m.CreatedAt,
	}
}
