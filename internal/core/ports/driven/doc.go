// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - PageReader: Direct per-page PDF text extraction
//   - Chunker: Splits extracted text into token windows
//   - EmbeddingService: Maps chunks and questions to vectors
//   - IndexStore: Persists chunk/vector pairs per collection
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - OCREngine: Recognises pages with no text layer. Without it, blank pages stay blank.
//   - LLMService: Answers questions. Without it, ask returns the fallback answer.
//   - PromptStore: User-editable prompts. Without it, embedded defaults are used.
//   - HistoryStore: Question and ingest log. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
