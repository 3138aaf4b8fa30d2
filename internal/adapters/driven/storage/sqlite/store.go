package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.HistoryStore = (*Store)(nil)

// DefaultLimit applies when a caller asks for a non-positive number of records.
const DefaultLimit = 20

// Store is the SQLite history store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) history.db in dataDir.
// If dataDir is empty, defaults to ~/.manualqa/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".manualqa", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")

	// WAL mode lets the TUI read while an ingest writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies every NNN_name.up.sql newer than the recorded version,
// each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}
	return nil
}

// RecordQuery stores a question with its answer.
func (s *Store) RecordQuery(ctx context.Context, record domain.QueryRecord) error {
	if record.AskedAt.IsZero() {
		record.AskedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queries (question, scope, answer, outcome, context_chunks, duration_ms, asked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Question,
		record.Scope,
		record.Answer,
		string(record.Outcome),
		record.ContextChunks,
		record.Duration.Milliseconds(),
		record.AskedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording query: %w", err)
	}
	return nil
}

// RecentQueries returns the latest query records, newest first.
func (s *Store) RecentQueries(ctx context.Context, limit int) ([]domain.QueryRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question, scope, answer, outcome, context_chunks, duration_ms, asked_at
		FROM queries
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing queries: %w", err)
	}
	defer rows.Close()

	var records []domain.QueryRecord
	for rows.Next() {
		var r domain.QueryRecord
		var outcome, askedAt string
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.Question, &r.Scope, &r.Answer, &outcome,
			&r.ContextChunks, &durationMS, &askedAt); err != nil {
			return nil, fmt.Errorf("scanning query: %w", err)
		}
		r.Outcome = domain.AnswerOutcome(outcome)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.AskedAt = parseTime(askedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// RecordIngest stores an ingest attempt.
func (s *Store) RecordIngest(ctx context.Context, record domain.IngestRecord) error {
	if record.IngestedAt.IsZero() {
		record.IngestedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingests (collection_id, name, content_hash, pages, ocr_pages, chunks, duplicate, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.CollectionID,
		record.Name,
		record.ContentHash,
		record.Pages,
		record.OCRPages,
		record.Chunks,
		boolToInt(record.Duplicate),
		record.IngestedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording ingest: %w", err)
	}
	return nil
}

// RecentIngests returns the latest ingest records, newest first.
func (s *Store) RecentIngests(ctx context.Context, limit int) ([]domain.IngestRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT collection_id, name, content_hash, pages, ocr_pages, chunks, duplicate, ingested_at
		FROM ingests
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing ingests: %w", err)
	}
	defer rows.Close()

	var records []domain.IngestRecord
	for rows.Next() {
		var r domain.IngestRecord
		var duplicate int
		var ingestedAt string
		if err := rows.Scan(&r.CollectionID, &r.Name, &r.ContentHash, &r.Pages,
			&r.OCRPages, &r.Chunks, &duplicate, &ingestedAt); err != nil {
			return nil, fmt.Errorf("scanning ingest: %w", err)
		}
		r.Duplicate = duplicate != 0
		r.IngestedAt = parseTime(ingestedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
