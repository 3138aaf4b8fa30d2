package services

import (
	"fmt"
	"os"
	"slices"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMMaxTokens     = "llm.max_tokens"
	keyChunkSize        = "retrieval.chunk_size"
	keyOverfetch        = "retrieval.overfetch"
	keyTopK             = "retrieval.top_k"
	keyOCREngine        = "extraction.ocr_engine"
	keyOCRLanguages     = "extraction.ocr_languages"
	keyOCRDPI           = "extraction.ocr_dpi"
	keyIndexBackend     = "index.backend"
	keyIndexDatabaseURL = "index.database_url"
	keyCacheRedisURL    = "cache.redis_url"
	keyCacheTTL         = "cache.ttl"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// API key environment variables. When set they take precedence over the config file.
//
//nolint:gosec // G101: These are variable names, not credentials.
var apiKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// aiValidator is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:  s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			BaseURL:   s.configStore.GetString(keyLLMBaseURL),
			APIKey:    s.configStore.GetString(keyLLMAPIKey),
			MaxTokens: s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
		},
		Retrieval: domain.RetrievalSettings{
			ChunkSize: s.getInt(keyChunkSize, defaults.Retrieval.ChunkSize),
			Overfetch: max(domain.MinOverfetch, s.getInt(keyOverfetch, defaults.Retrieval.Overfetch)),
			TopK:      s.getInt(keyTopK, defaults.Retrieval.TopK),
		},
		Extraction: domain.ExtractionSettings{
			OCREngine:    s.getOCREngine(defaults.Extraction.OCREngine),
			OCRLanguages: s.getStringSlice(keyOCRLanguages, defaults.Extraction.OCRLanguages),
			OCRDPI:       s.getInt(keyOCRDPI, defaults.Extraction.OCRDPI),
		},
		Index: domain.IndexSettings{
			Backend:     s.getIndexBackend(defaults.Index.Backend),
			DatabaseURL: s.configStore.GetString(keyIndexDatabaseURL),
		},
		Cache: domain.CacheSettings{
			RedisURL: s.configStore.GetString(keyCacheRedisURL),
			TTL:      defaults.Cache.TTL,
		},
	}

	// Models default per provider, so read them after the provider is known.
	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])

	if ttl := s.configStore.GetDuration(keyCacheTTL); ttl > 0 {
		settings.Cache.TTL = ttl
	}

	if key := s.envAPIKey(settings.Embedding.Provider); key != "" {
		settings.Embedding.APIKey = key
	}
	if key := s.envAPIKey(settings.LLM.Provider); key != "" {
		settings.LLM.APIKey = key
	}

	return settings, nil
}

// Save persists application settings.
// API keys supplied through the environment are not written to the file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyChunkSize, settings.Retrieval.ChunkSize},
		{keyOverfetch, settings.Retrieval.Overfetch},
		{keyTopK, settings.Retrieval.TopK},
		{keyOCREngine, string(settings.Extraction.OCREngine)},
		{keyOCRLanguages, settings.Extraction.OCRLanguages},
		{keyOCRDPI, settings.Extraction.OCRDPI},
		{keyIndexBackend, string(settings.Index.Backend)},
		{keyIndexDatabaseURL, settings.Index.DatabaseURL},
		{keyCacheRedisURL, settings.Cache.RedisURL},
		{keyCacheTTL, settings.Cache.TTL.String()},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if key := settings.Embedding.APIKey; key != "" && key != s.envAPIKey(settings.Embedding.Provider) {
		if err := s.configStore.Set(keyEmbedAPIKey, key); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if key := settings.LLM.APIKey; key != "" && key != s.envAPIKey(settings.LLM.Provider) {
		if err := s.configStore.Set(keyLLMAPIKey, key); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.envAPIKey(provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if !slices.Contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("provider %s does not support answering", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.envAPIKey(provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetRetrieval updates chunk size, over-fetch and default k.
func (s *SettingsService) SetRetrieval(retrieval domain.RetrievalSettings) error {
	if err := retrieval.Validate(); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Retrieval = retrieval
	return s.Save(settings)
}

// SetExtraction updates OCR settings.
func (s *SettingsService) SetExtraction(extraction domain.ExtractionSettings) error {
	if !extraction.OCREngine.IsValid() {
		return fmt.Errorf("%w: unknown OCR engine %q", domain.ErrInvalidInput, extraction.OCREngine)
	}
	if extraction.OCREngine != domain.OCREngineNone && len(extraction.OCRLanguages) == 0 {
		return fmt.Errorf("%w: at least one OCR language is required", domain.ErrInvalidInput)
	}
	if extraction.OCRDPI <= 0 {
		return fmt.Errorf("%w: OCR DPI must be positive, got %d", domain.ErrInvalidInput, extraction.OCRDPI)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Extraction = extraction
	return s.Save(settings)
}

// SetIndex selects the vector index backend.
func (s *SettingsService) SetIndex(index domain.IndexSettings) error {
	if err := validateIndex(index); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Index = index
	return s.Save(settings)
}

// Validate checks that the current settings can run ingest and ask.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Retrieval.Validate(); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider)
	}
	if !settings.Extraction.OCREngine.IsValid() {
		return fmt.Errorf("%w: unknown OCR engine %q", domain.ErrInvalidInput, settings.Extraction.OCREngine)
	}
	return validateIndex(settings.Index)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func validateIndex(index domain.IndexSettings) error {
	if !index.Backend.IsValid() {
		return fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, index.Backend)
	}
	if index.Backend == domain.IndexBackendPgvector && index.DatabaseURL == "" {
		return fmt.Errorf("%w: the pgvector backend needs index.database_url", domain.ErrInvalidInput)
	}
	return nil
}

// baseURLFor keeps a custom Ollama URL, defaults it when unset, and clears it
// for providers that do not take one.
func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		return ""
	}
	if current == "" {
		return defaultOllamaBaseURL
	}
	return current
}

func (s *SettingsService) envAPIKey(provider domain.AIProvider) string {
	name, ok := apiKeyEnv[provider]
	if !ok || s.getenv == nil {
		return ""
	}
	return s.getenv(name)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getOCREngine(defaultVal domain.OCREngineType) domain.OCREngineType {
	engine := domain.OCREngineType(s.configStore.GetString(keyOCREngine))
	if !engine.IsValid() {
		return defaultVal
	}
	return engine
}

func (s *SettingsService) getIndexBackend(defaultVal domain.IndexBackend) domain.IndexBackend {
	backend := domain.IndexBackend(s.configStore.GetString(keyIndexBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
