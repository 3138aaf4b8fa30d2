package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// AnswerService answers questions grounded in ingested manuals.
type AnswerService interface {
	// Ask retrieves context and asks the language model.
	// Answerer failures never surface as errors: the answer carries
	// domain.FallbackAnswer instead. Missing context yields domain.NotFoundAnswer.
	// Errors are returned only for invalid parameters or retrieval failures.
	Ask(ctx context.Context, question string, scope domain.Scope, k int) (*domain.Answer, error)
}
