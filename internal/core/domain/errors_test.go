package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrExtractionEmpty", ErrExtractionEmpty},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrCollectionNotFound", ErrCollectionNotFound},
		{"ErrAnswererUnavailable", ErrAnswererUnavailable},
		{"ErrInvalidQuery", ErrInvalidQuery},
		{"ErrNoRelevantContext", ErrNoRelevantContext},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrIndexStoreUnavailable", ErrIndexStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Distinct(t *testing.T) {
	all := []error{
		ErrExtractionEmpty, ErrDimensionMismatch, ErrCollectionNotFound,
		ErrAnswererUnavailable, ErrInvalidQuery, ErrNoRelevantContext,
	}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

func TestErrors_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("collection %q: %w", "manual_ab12cd34", ErrDimensionMismatch)

	assert.True(t, errors.Is(wrapped, ErrDimensionMismatch))
	assert.Contains(t, wrapped.Error(), "manual_ab12cd34")
}
