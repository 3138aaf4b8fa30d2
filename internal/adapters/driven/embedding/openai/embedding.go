// Package openai embeds text through the OpenAI embeddings API or any
// server that speaks it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "text-embedding-3-small"
	DefaultTimeout   = 60 * time.Second
	DefaultBatchSize = 256

	fallbackDimensions = 1536
)

// modelDimensions lists the native vector size of known models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// shortenable models accept a "dimensions" request field.
var shortenable = map[string]bool{
	"text-embedding-3-small": true,
	"text-embedding-3-large": true,
}

// Config configures the service. APIKey is required; other zero fields take
// the defaults above. Dimensions shortens text-embedding-3 vectors.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
	BatchSize  int
	RateLimit  RateLimitConfig
}

// EmbeddingService calls /embeddings, paced by a token bucket.
type EmbeddingService struct {
	api        *httpapi.Client
	model      string
	dimensions int
	batchSize  int
	limiter    *rateLimiter
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates an OpenAI embedder.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is required", domain.ErrInvalidInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = fallbackDimensions
		if d, ok := modelDimensions[cfg.Model]; ok {
			cfg.Dimensions = d
		}
	}

	return &EmbeddingService{
		api:        httpapi.New("openai", cfg.BaseURL, cfg.Timeout, domain.ErrEmbeddingUnavailable, httpapi.WithBearer(cfg.APIKey)),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
		limiter:    newRateLimiter(cfg.RateLimit),
	}, nil
}

// Embed implements driven.EmbeddingService.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts BatchSize at a time, preserving order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		batch, err := s.request(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (s *EmbeddingService) request(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := embeddingRequest{Model: s.model, Input: texts}
	if shortenable[s.model] {
		req.Dimensions = s.dimensions
	}

	var resp embeddingResponse
	if err := s.api.Post(ctx, "/embeddings", req, &resp); err != nil {
		var status *httpapi.StatusError
		if errors.As(err, &status) && status.TooManyRequests() {
			s.limiter.Backoff(status.RetryAfter)
			logger.Warn("OpenAI embeddings rate limited, backing off")
		}
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: openai: %s", domain.ErrEmbeddingUnavailable, resp.Error.Message)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

// Dimensions implements driven.EmbeddingService.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName implements driven.EmbeddingService.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping checks the key against /models/{model} without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/models/"+s.model, nil)
}

// Close implements driven.EmbeddingService.
func (s *EmbeddingService) Close() error {
	return nil
}
