// Package domain defines the core business entities for manualqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded manual, identified by the hash of its bytes
//   - Page: One page of extracted text, transient
//   - Chunk: A bounded run of whitespace-delimited tokens, the unit of retrieval
//   - Collection: The persisted chunk/vector pairs of one ingested document
//   - Scope: Which collections a question is asked against
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
