package driving

import "github.com/custodia-labs/manualqa/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetRetrieval updates chunk size, over-fetch and default k.
	SetRetrieval(retrieval domain.RetrievalSettings) error

	// SetExtraction updates the OCR engine, languages and render resolution.
	SetExtraction(extraction domain.ExtractionSettings) error

	// SetIndex selects the vector index backend.
	SetIndex(index domain.IndexSettings) error

	// Validate checks the current settings.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
