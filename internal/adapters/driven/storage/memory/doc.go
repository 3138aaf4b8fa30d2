// Package memory provides in-memory stores.
//
// ConfigStore backs ephemeral runs and tests. HistoryStore is the fallback
// when the SQLite history database cannot be opened; it forgets everything
// on exit.
package memory
