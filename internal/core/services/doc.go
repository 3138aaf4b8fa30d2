// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The write path is IngestService: Extractor, Chunker, EmbeddingService and
// IndexStore in that order. The read path is AnswerService on top of
// RetrievalService. SharedEmbedder gives both paths one lazily built
// embedding model.
//
// Services are pure Go with no CGO or external dependencies.
package services
