// Package watcher ingests PDF manuals dropped into an inbox directory.
//
// Events are debounced per file: a manual is ingested once no write has been
// seen for the settle delay, so partially copied files are not read. Removing
// a file does not remove its collection.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// DefaultSettle is how long a file must be quiet before it is ingested.
const DefaultSettle = time.Second

// ResultFunc receives the outcome of each ingest attempt.
type ResultFunc func(path string, result *domain.IngestResult, err error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets the debounce delay.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithExisting ingests PDFs already in the directory when Run starts.
func WithExisting() Option {
	return func(w *Watcher) { w.existing = true }
}

// WithResults registers a callback for ingest outcomes.
func WithResults(fn ResultFunc) Option {
	return func(w *Watcher) { w.onResult = fn }
}

// WithIngestOptions sets the options passed to every ingest.
func WithIngestOptions(opts domain.IngestOptions) Option {
	return func(w *Watcher) { w.opts = opts }
}

// Watcher feeds new PDFs in a directory to an IngestService.
type Watcher struct {
	dir      string
	ingest   driving.IngestService
	settle   time.Duration
	existing bool
	opts     domain.IngestOptions
	onResult ResultFunc
}

// New creates a watcher for dir.
func New(dir string, ingest driving.IngestService, opts ...Option) *Watcher {
	w := &Watcher{
		dir:    dir,
		ingest: ingest,
		settle: DefaultSettle,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the directory until ctx is cancelled.
// Ingest failures are reported through the result callback and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("inbox directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for PDF manuals", w.dir)

	if w.existing {
		if err := w.ingestExisting(ctx); err != nil {
			return err
		}
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(max(w.settle/2, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.handleEvent(event); ok {
				logger.Debug("Inbox event %s on %s", event.Op, path)
				pending[path] = time.Now()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Inbox watcher error: %v", err)

		case now := <-ticker.C:
			for _, path := range settled(pending, now, w.settle) {
				delete(pending, path)
				w.ingestPath(ctx, path)
			}
		}
	}
}

// handleEvent returns the path to ingest for create and write events on
// visible PDF files.
func (w *Watcher) handleEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if !isManual(event.Name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

func (w *Watcher) ingestExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil
		}
		if entry.Type().IsRegular() && isManual(entry.Name()) {
			w.ingestPath(ctx, filepath.Join(w.dir, entry.Name()))
		}
	}
	return nil
}

func (w *Watcher) ingestPath(ctx context.Context, path string) {
	result, err := w.ingest.IngestFile(ctx, path, w.opts)
	switch {
	case errors.Is(err, domain.ErrExtractionEmpty):
		logger.Warn("Skipped %s: no extractable text", filepath.Base(path))
	case err != nil:
		logger.Error("Ingest of %s failed: %v", filepath.Base(path), err)
	}
	if w.onResult != nil {
		w.onResult(path, result, err)
	}
}

// settled returns pending paths quiet for at least settle, in name order.
func settled(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= settle {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	return ready
}

// isManual reports whether name is a visible PDF file name.
func isManual(name string) bool {
	base := filepath.Base(name)
	return !strings.HasPrefix(base, ".") && strings.EqualFold(filepath.Ext(base), ".pdf")
}
