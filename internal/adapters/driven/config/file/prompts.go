package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults/*.txt defaults/README.md
var defaultsFS embed.FS

const promptExt = ".txt"

// PromptStore serves answer prompts from user-editable files in a directory.
// The directory is seeded with the built-in prompts on first Load; a prompt
// whose file is missing or unreadable falls back to the built-in text.
// Loaded prompts are cached until Reload.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a prompt store rooted at dir.
// An empty dir means <home>/prompts (see HomeDir). No I/O happens here.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := HomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the named prompt template.
func (s *PromptStore) Load(name string) (string, error) {
	fallback, known := defaultPrompt(name)

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		if known {
			return fallback, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.seedErr)
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	data, err := os.ReadFile(s.path(name))
	switch {
	case err == nil:
		prompt = strings.TrimSpace(string(data))
	case known:
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Reading prompt %s, using built-in: %v", name, err)
		}
		prompt = fallback
	default:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()
	return prompt, nil
}

// Reload drops cached prompts so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
	logger.Debug("Prompt cache cleared")
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+promptExt)
}

// seed creates the directory and writes every built-in file that is not
// already present. User edits are never overwritten.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	entries, err := defaultsFS.ReadDir("defaults")
	if err != nil {
		s.seedErr = err
		return
	}
	for _, e := range entries {
		target := filepath.Join(s.dir, e.Name())
		if _, err := os.Stat(target); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := defaultsFS.ReadFile("defaults/" + e.Name())
		if err != nil {
			s.seedErr = err
			return
		}
		if err := os.WriteFile(target, data, 0600); err != nil {
			s.seedErr = fmt.Errorf("create default %s: %w", e.Name(), err)
			return
		}
	}
}

// defaultPrompt returns the built-in text for name.
func defaultPrompt(name string) (string, bool) {
	data, err := defaultsFS.ReadFile("defaults/" + name + promptExt)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}
