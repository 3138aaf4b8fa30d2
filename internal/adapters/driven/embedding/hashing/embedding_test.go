package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func l2(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i] - b[i])
		s += d * d
	}
	return math.Sqrt(s)
}

func TestEmbed_DeterministicAndNormalised(t *testing.T) {
	s := NewEmbeddingService(0)
	ctx := context.Background()

	a, err := s.Embed(ctx, "Check the engine oil level")
	require.NoError(t, err)
	b, err := s.Embed(ctx, "Check the engine oil level")
	require.NoError(t, err)

	assert.Len(t, a, DefaultDimensions)
	assert.Equal(t, a, b)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestEmbed_SharedVocabularyIsCloser(t *testing.T) {
	s := NewEmbeddingService(0)
	ctx := context.Background()

	q, err := s.Embed(ctx, "엔진 오일 교체 주기")
	require.NoError(t, err)
	near, err := s.Embed(ctx, "엔진 오일은 10000km마다 교체 하십시오")
	require.NoError(t, err)
	far, err := s.Embed(ctx, "tire pressure should be 35 psi")
	require.NoError(t, err)

	assert.Less(t, l2(q, near), l2(q, far))
}

func TestEmbed_CaseInsensitive(t *testing.T) {
	s := NewEmbeddingService(64)
	ctx := context.Background()

	a, err := s.Embed(ctx, "BRAKE Fluid")
	require.NoError(t, err)
	b, err := s.Embed(ctx, "brake fluid")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmbed_NoWordsIsZeroVector(t *testing.T) {
	s := NewEmbeddingService(8)

	v, err := s.Embed(context.Background(), " --- ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), v)
}

func TestEmbed_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEmbeddingService(0).EmbedBatch(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbedBatch_MatchesEmbed(t *testing.T) {
	s := NewEmbeddingService(0)
	ctx := context.Background()

	batch, err := s.EmbedBatch(ctx, []string{"one", "two"})
	require.NoError(t, err)
	single, err := s.Embed(ctx, "two")
	require.NoError(t, err)
	assert.Equal(t, single, batch[1])
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "hashing-512", NewEmbeddingService(0).ModelName())
	assert.Equal(t, "hashing-64", NewEmbeddingService(64).ModelName())
	assert.NoError(t, NewEmbeddingService(0).Ping(context.Background()))
}

func TestParseModel(t *testing.T) {
	n, err := ParseModel("hashing-256")
	require.NoError(t, err)
	assert.Equal(t, 256, n)

	n, err = ParseModel("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDimensions, n)

	_, err = ParseModel("nomic-embed-text")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = ParseModel("hashing-0")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
