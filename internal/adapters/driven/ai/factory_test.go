package ai

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/indexstore/flat"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  bool
	}{
		{
			name:    "nil settings returns nil",
			wantNil: true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name: "local provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderLocal,
				Model:    "hashing-512",
			},
		},
		{
			name: "local provider rejects malformed model",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderLocal,
				Model:    "nomic-embed-text",
			},
			wantNil: true,
			wantErr: true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
		},
		{
			name: "openai without key is not configured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				Model:    "text-embedding-3-small",
			},
			wantNil: true,
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantNil: true,
			wantErr: true,
		},
		{
			name: "unknown provider returns nil (not configured)",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateEmbeddingService_LocalDimensions(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderLocal,
		Model:    "hashing-128",
	})

	require.NoError(t, err)
	assert.Equal(t, 128, svc.Dimensions())
	assert.Equal(t, "hashing-128", svc.ModelName())
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantNil  bool
	}{
		{
			name:    "nil settings returns nil",
			wantNil: true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.LLMSettings{},
			wantNil:  true,
		},
		{
			name: "local provider has no LLM",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderLocal,
			},
			wantNil: true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "llama3.2",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "gpt-4o-mini",
			},
		},
		{
			name: "anthropic provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
				Model:    "claude-3-5-sonnet-latest",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)

			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("unconfigured returns nil", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{})
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("local pings without a server", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderLocal})
		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.Equal(t, hashing.DefaultDimensions, svc.Dimensions())
	})

	t.Run("anthropic is unavailable", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderAnthropic,
			APIKey:   "test-key",
		})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Nil(t, svc)
	})

	t.Run("unreachable ollama is unavailable", func(t *testing.T) {
		_, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  "http://127.0.0.1:1",
			Model:    "nomic-embed-text",
		})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestCreateAndValidateLLMService_Unreachable(t *testing.T) {
	svc, err := CreateAndValidateLLMService(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  "http://127.0.0.1:1",
		Model:    "llama3.2",
	})

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Nil(t, svc)
}

func TestEmbedderBuilder(t *testing.T) {
	t.Run("builds configured provider", func(t *testing.T) {
		settings := domain.DefaultAppSettings()

		svc, err := EmbedderBuilder(&settings)()

		require.NoError(t, err)
		assert.Equal(t, "hashing-512", svc.ModelName())
	})

	t.Run("unconfigured provider is unavailable", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}

		_, err := EmbedderBuilder(&settings)()

		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Contains(t, err.Error(), "manualqa settings")
	})

	t.Run("invalid model is unavailable", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding.Model = "bogus"

		_, err := EmbedderBuilder(&settings)()

		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestWithCache(t *testing.T) {
	inner := hashing.NewEmbeddingService(16)

	t.Run("disabled returns inner", func(t *testing.T) {
		assert.Same(t, inner, WithCache(inner, domain.CacheSettings{}))
	})

	t.Run("unreachable redis returns inner", func(t *testing.T) {
		svc := WithCache(inner, domain.CacheSettings{RedisURL: "redis://127.0.0.1:1/0"})
		assert.Same(t, inner, svc)
	})

	t.Run("malformed url returns inner", func(t *testing.T) {
		svc := WithCache(inner, domain.CacheSettings{RedisURL: "not a url"})
		assert.Same(t, inner, svc)
	})
}

func TestCreateIndexStore(t *testing.T) {
	ctx := context.Background()

	t.Run("flat is the default", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "index")

		store, err := CreateIndexStore(ctx, domain.IndexSettings{}, dir)

		require.NoError(t, err)
		defer store.Close()
		flatStore, ok := store.(*flat.Store)
		require.True(t, ok)
		assert.Equal(t, dir, flatStore.Root())
	})

	t.Run("pgvector needs a database URL", func(t *testing.T) {
		_, err := CreateIndexStore(ctx, domain.IndexSettings{Backend: domain.IndexBackendPgvector}, t.TempDir())

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := CreateIndexStore(ctx, domain.IndexSettings{Backend: "faiss"}, t.TempDir())

		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})
}

func TestCreateOCREngine(t *testing.T) {
	t.Run("none disables OCR", func(t *testing.T) {
		engine, warning := CreateOCREngine(domain.ExtractionSettings{OCREngine: domain.OCREngineNone})
		assert.Nil(t, engine)
		assert.Empty(t, warning)
	})

	t.Run("tesseract", func(t *testing.T) {
		engine, _ := CreateOCREngine(domain.ExtractionSettings{OCREngine: domain.OCREngineTesseract, OCRDPI: 200})
		require.NotNil(t, engine)
		assert.Equal(t, "tesseract", engine.Name())
	})

	t.Run("gosseract without the build tag falls back", func(t *testing.T) {
		engine, warning := CreateOCREngine(domain.ExtractionSettings{OCREngine: domain.OCREngineGosseract})
		require.NotNil(t, engine)
		if engine.Name() == "gosseract" {
			t.Skip("built with the gosseract tag")
		}
		assert.Equal(t, "tesseract", engine.Name())
		assert.Contains(t, warning, "tesseract CLI")
	})

	t.Run("unknown engine falls back", func(t *testing.T) {
		engine, warning := CreateOCREngine(domain.ExtractionSettings{OCREngine: "abbyy"})
		require.NotNil(t, engine)
		assert.Equal(t, "tesseract", engine.Name())
		assert.Contains(t, warning, "abbyy")
	})
}

func TestInitialise(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Extraction.OCREngine = domain.OCREngineNone

	result, err := Initialise(context.Background(), &settings, t.TempDir())

	require.NoError(t, err)
	defer result.Close()
	assert.NotNil(t, result.IndexStore)
	assert.Nil(t, result.LLMService)
	assert.Nil(t, result.OCREngine)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no LLM configured")
}

func TestInitialise_WithLLM(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Extraction.OCREngine = domain.OCREngineNone
	settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  "http://localhost:11434",
		Model:    "llama3.2",
	}

	result, err := Initialise(context.Background(), &settings, t.TempDir())

	require.NoError(t, err)
	defer result.Close()
	assert.NotNil(t, result.LLMService)
	assert.Empty(t, result.Warnings)
}

func TestInitialise_IndexFailure(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Index.Backend = "faiss"

	_, err := Initialise(context.Background(), &settings, t.TempDir())

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
