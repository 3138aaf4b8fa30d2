// Package mcp provides an MCP (Model Context Protocol) server adapter for manualqa.
// It lets AI assistants ask questions against ingested manuals and ingest new ones.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// errAskUnavailable is returned by the ask tool when no answer service is wired.
var errAskUnavailable = errors.New("mcp: answer service is not configured")

// errIngestUnavailable is returned by the ingest tool when no ingest service is wired.
var errIngestUnavailable = errors.New("mcp: ingest service is not configured")
