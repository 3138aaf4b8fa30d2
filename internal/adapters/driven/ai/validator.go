package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// probeText is embedded once to confirm the model answers with vectors of
// the size it advertises.
const probeText = "manualqa embedding probe"

// ConfigValidator checks provider settings by building the service and
// talking to it.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator that gives each provider
// pingTimeout to respond.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// ValidateEmbedding builds the embedder, pings it and embeds a probe.
// Unset settings have nothing to validate and return nil.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return err
	}
	return probeDimensions(ctx, svc)
}

// ValidateLLM builds the answerer and pings it.
// Unset settings have nothing to validate and return nil.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	if config == nil || !config.IsConfigured() {
		return nil
	}
	svc, err := CreateLLMService(config)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return svc.Ping(ctx)
}

// probeDimensions embeds probeText and compares the vector length with
// what the service reports. Services that learn their size from the first
// response report zero and are accepted as-is.
func probeDimensions(ctx context.Context, svc driven.EmbeddingService) error {
	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("embedding probe: %w", err)
	}
	if len(vec) == 0 {
		return fmt.Errorf("embedding probe: %w: empty vector", domain.ErrEmbeddingUnavailable)
	}
	if want := svc.Dimensions(); want > 0 && want != len(vec) {
		return fmt.Errorf("embedding probe: %w: got %d, model reports %d",
			domain.ErrDimensionMismatch, len(vec), want)
	}
	return nil
}
