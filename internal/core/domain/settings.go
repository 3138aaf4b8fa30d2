package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderLocal is the built-in feature-hashing embedder. Embeddings only.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderLocal:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderLocal:
		return "Built-in hashing embedder (offline)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// MaxTokens caps the answer length.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings holds chunking and search parameters.
type RetrievalSettings struct {
	// ChunkSize is the maximum number of tokens per chunk.
	ChunkSize int

	// Overfetch multiplies k for the vector stage. Values below MinOverfetch are raised.
	Overfetch int

	// TopK is the default number of chunks passed to the answerer.
	TopK int
}

// Validate checks the retrieval parameters.
func (r RetrievalSettings) Validate() error {
	if r.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidInput, r.ChunkSize)
	}
	if r.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidInput, r.TopK)
	}
	if r.Overfetch < MinOverfetch {
		return fmt.Errorf("%w: overfetch must be at least %d, got %d", ErrInvalidInput, MinOverfetch, r.Overfetch)
	}
	return nil
}

// OCREngineType selects the OCR implementation.
type OCREngineType string

// Available OCR engines.
const (
	// OCREngineTesseract runs the tesseract and pdftoppm binaries.
	OCREngineTesseract OCREngineType = "tesseract"

	// OCREngineGosseract links libtesseract in-process. Needs the gosseract build tag.
	OCREngineGosseract OCREngineType = "gosseract"

	// OCREngineNone disables OCR fallback.
	OCREngineNone OCREngineType = "none"
)

// IsValid returns true if the engine is recognised.
func (e OCREngineType) IsValid() bool {
	switch e {
	case OCREngineTesseract, OCREngineGosseract, OCREngineNone:
		return true
	default:
		return false
	}
}

// ExtractionSettings holds PDF extraction configuration.
type ExtractionSettings struct {
	// OCREngine selects the OCR implementation used for blank pages.
	OCREngine OCREngineType

	// OCRLanguages are tesseract language codes, joined with "+" when invoked.
	OCRLanguages []string

	// OCRDPI is the page render resolution for OCR.
	OCRDPI int
}

// IndexBackend selects the vector index implementation.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendFlat stores one directory of flat files per collection.
	IndexBackendFlat IndexBackend = "flat"

	// IndexBackendPgvector stores collections in PostgreSQL with pgvector.
	IndexBackendPgvector IndexBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendFlat || b == IndexBackendPgvector
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Backend selects the index implementation.
	Backend IndexBackend

	// DatabaseURL is the PostgreSQL connection string for the pgvector backend.
	DatabaseURL string
}

// CacheSettings holds the optional query embedding cache configuration.
type CacheSettings struct {
	// RedisURL enables the cache when set (redis://host:port/db).
	RedisURL string

	// TTL is how long cached embeddings live.
	TTL time.Duration
}

// Enabled reports whether the cache is configured.
func (c CacheSettings) Enabled() bool {
	return c.RedisURL != ""
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Retrieval holds chunking and search parameters.
	Retrieval RetrievalSettings

	// Extraction holds PDF and OCR settings.
	Extraction ExtractionSettings

	// Index holds vector index settings.
	Index IndexSettings

	// Cache holds embedding cache settings.
	Cache CacheSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The embedder defaults to the offline hashing model so ingest works without
// any service; the LLM is left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderLocal,
			Model:    DefaultEmbeddingModels()[AIProviderLocal],
		},
		LLM: LLMSettings{
			MaxTokens: 500,
		},
		Retrieval: RetrievalSettings{
			ChunkSize: 300,
			Overfetch: DefaultOverfetch,
			TopK:      DefaultTopK,
		},
		Extraction: ExtractionSettings{
			OCREngine:    OCREngineTesseract,
			OCRLanguages: []string{"kor", "eng"},
			OCRDPI:       300,
		},
		Index: IndexSettings{
			Backend: IndexBackendFlat,
		},
		Cache: CacheSettings{
			TTL: 24 * time.Hour,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderLocal,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:  "hashing-512",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Built-in
		"hashing-512": 512,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
