package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Retrieval Core Errors.

	// ErrExtractionEmpty indicates no page produced usable text, even after OCR.
	// Callers skip ingestion and warn the user.
	ErrExtractionEmpty = errors.New("no text could be extracted from document")

	// ErrDimensionMismatch indicates a vector's length disagrees with the
	// dimensionality already recorded for its collection. The batch is rejected.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCollectionNotFound indicates an explicitly named collection has no persisted data.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrAnswererUnavailable indicates the language model call failed.
	// It never reaches the user: the answer service substitutes FallbackAnswer.
	ErrAnswererUnavailable = errors.New("answerer unavailable")

	// ErrInvalidQuery indicates a non-positive k or an empty question.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrNoRelevantContext indicates retrieval produced no usable context.
	// Callers answer with NotFoundAnswer instead of invoking the answerer.
	ErrNoRelevantContext = errors.New("no relevant context")

	// Service Availability Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or could not be initialised.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexStoreUnavailable indicates the index backend could not be opened.
	ErrIndexStoreUnavailable = errors.New("index store unavailable")
)
