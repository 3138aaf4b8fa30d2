// Package sqlite stores query and ingest history in SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. The schema is managed through versioned migrations in the
// migrations/ directory; applied versions are tracked in schema_migrations.
//
// By default the database is stored at <home>/data/history.db.
package sqlite
