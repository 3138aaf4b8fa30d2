// Package ai provides factory functions for creating AI service adapters
// and the backends the retrieval core runs on.
package ai

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/cache"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/indexstore/flat"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/indexstore/pgvector"
	anthropicllm "github.com/custodia-labs/manualqa/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/manualqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/manualqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/ocr/gosseract"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/ocr/tesseract"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// settingsHint is appended to configuration errors.
const settingsHint = "Run 'manualqa settings' to fix"

// InitResult contains the backends built from settings.
type InitResult struct {
	IndexStore driven.IndexStore
	LLMService driven.LLMService // nil when no answerer is configured.
	OCREngine  driven.OCREngine  // nil when OCR is disabled.
	Warnings   []string          // Non-fatal issues that caused fallback.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.IndexStore != nil {
		if err := r.IndexStore.Close(); err != nil {
			logger.Warn("Closing index store: %v", err)
		}
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise builds the index store, answerer and OCR engine.
// The index store is required; a missing answerer or OCR engine only adds a warning.
// The embedder is not built here: see EmbedderBuilder.
func Initialise(ctx context.Context, settings *domain.AppSettings, dataDir string) (*InitResult, error) {
	index, err := CreateIndexStore(ctx, settings.Index, filepath.Join(dataDir, "collections"))
	if err != nil {
		return nil, err
	}

	result := &InitResult{IndexStore: index}

	if settings.LLM.IsConfigured() {
		llm, err := CreateLLMService(&settings.LLM)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("answerer disabled: %v", err))
		} else {
			result.LLMService = llm
		}
	} else {
		result.Warnings = append(result.Warnings, "no LLM configured, answers will use the fallback text. "+settingsHint)
	}

	ocr, warning := CreateOCREngine(settings.Extraction)
	result.OCREngine = ocr
	if warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result, nil
}

// EmbedderBuilder returns a constructor for the configured embedding service.
// The service is wrapped with the Redis cache when one is configured.
func EmbedderBuilder(settings *domain.AppSettings) func() (driven.EmbeddingService, error) {
	return func() (driven.EmbeddingService, error) {
		svc, err := CreateEmbeddingService(&settings.Embedding)
		if err != nil {
			return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
		}
		if svc == nil {
			return nil, fmt.Errorf("%w: embedding provider %q is not configured. %s",
				domain.ErrEmbeddingUnavailable, settings.Embedding.Provider, settingsHint)
		}
		return WithCache(svc, settings.Cache), nil
	}
}

// WithCache wraps svc with the Redis embedding cache.
// An unreachable Redis is logged and svc is returned unwrapped.
func WithCache(svc driven.EmbeddingService, settings domain.CacheSettings) driven.EmbeddingService {
	if !settings.Enabled() {
		return svc
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	client, err := cache.Connect(ctx, settings.RedisURL)
	if err != nil {
		logger.Warn("Embedding cache disabled: %v", err)
		return svc
	}
	logger.Debug("Embedding cache enabled at %s (ttl %s)", settings.RedisURL, settings.TTL)
	return cache.New(svc, client, settings.TTL)
}

// CreateIndexStore opens the configured vector index backend.
// flatDir is the root directory for the flat backend.
func CreateIndexStore(ctx context.Context, settings domain.IndexSettings, flatDir string) (driven.IndexStore, error) {
	switch settings.Backend {
	case domain.IndexBackendFlat, "":
		store, err := flat.NewStore(flatDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrIndexStoreUnavailable, err)
		}
		logger.Debug("Index store: flat at %s", store.Root())
		return store, nil

	case domain.IndexBackendPgvector:
		connectCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		store, err := pgvector.NewStore(connectCtx, settings.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening pgvector index: %w. %s", err, settingsHint)
		}
		logger.Debug("Index store: pgvector")
		return store, nil

	default:
		return nil, fmt.Errorf("%w: index backend %q", domain.ErrUnsupportedType, settings.Backend)
	}
}

// CreateOCREngine builds the configured OCR engine.
// Returns a nil engine for OCREngineNone. The warning is non-empty when the
// engine is degraded: gosseract falls back to the tesseract CLI when the
// binary was built without it, and a missing CLI is reported but kept so the
// extractor can log per-page failures.
func CreateOCREngine(settings domain.ExtractionSettings) (driven.OCREngine, string) {
	switch settings.OCREngine {
	case domain.OCREngineNone:
		return nil, ""

	case domain.OCREngineGosseract:
		if gosseract.Available() {
			return gosseract.New(settings.OCRDPI), ""
		}
		engine, warning := createTesseract(settings)
		fallback := fmt.Sprintf("OCR: %v, using the tesseract CLI", gosseract.ErrNotCompiled)
		if warning != "" {
			fallback += "; " + warning
		}
		return engine, fallback

	case domain.OCREngineTesseract, "":
		return createTesseract(settings)

	default:
		engine, warning := createTesseract(settings)
		unknown := fmt.Sprintf("OCR: unknown engine %q, using the tesseract CLI", settings.OCREngine)
		if warning != "" {
			unknown += "; " + warning
		}
		return engine, unknown
	}
}

func createTesseract(settings domain.ExtractionSettings) (driven.OCREngine, string) {
	engine := tesseract.New(tesseract.WithDPI(settings.OCRDPI))
	if err := tesseract.CheckAvailable(); err != nil {
		return engine, fmt.Sprintf("OCR unavailable (%v), scanned pages will be skipped", err)
	}
	return engine, ""
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, settingsHint)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, settingsHint)
	}

	return svc, nil
}

// errAnthropicEmbeddings is returned when Anthropic is chosen for embeddings.
var errAnthropicEmbeddings = errors.New("anthropic does not support embeddings, use local, ollama or openai")

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, errAnthropicEmbeddings
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		return createLocalEmbedding(settings)

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("%w: LLM provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// createLocalEmbedding creates the offline hashing embedder.
func createLocalEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions, err := hashing.ParseModel(settings.Model)
	if err != nil {
		return nil, err
	}
	return hashing.NewEmbeddingService(dimensions), nil
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions := domain.EmbeddingDimensions()[settings.Model]

	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOpenAILLM creates an OpenAI LLM service.
func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
