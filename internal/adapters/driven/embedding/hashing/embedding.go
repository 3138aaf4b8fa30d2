// Package hashing provides a deterministic offline embedder based on feature hashing.
//
// Words and character trigrams are hashed into a fixed number of buckets with
// a sign bit, then the vector is L2-normalised. Texts sharing vocabulary land
// close together, which is enough for small manuals and for tests. It needs no
// model download and no network.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the bucket count used by the "hashing-512" model.
const DefaultDimensions = 512

// wordPattern matches runs of letters and digits in any script.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// EmbeddingService hashes text into a fixed-size vector.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder with the given bucket count.
// Zero uses DefaultDimensions.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// ModelNameFor returns the model name for a bucket count.
func ModelNameFor(dimensions int) string {
	return fmt.Sprintf("hashing-%d", dimensions)
}

// Embed returns the normalised hashed vector of text. Text without any
// letters or digits maps to the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, s.dimensions)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		s.add(vec, "w:"+word, 1.0)
		runes := []rune(word)
		for i := 0; i+3 <= len(runes); i++ {
			s.add(vec, "t:"+string(runes[i:i+3]), 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, s.dimensions)
	if norm == 0 {
		return out, nil
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func (s *EmbeddingService) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(s.dimensions))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the bucket count.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns "hashing-<dimensions>".
func (s *EmbeddingService) ModelName() string {
	return ModelNameFor(s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases nothing.
func (s *EmbeddingService) Close() error {
	return nil
}

// ParseModel returns the bucket count encoded in a "hashing-N" model name.
func ParseModel(model string) (int, error) {
	if model == "" {
		return DefaultDimensions, nil
	}
	var n int
	if _, err := fmt.Sscanf(model, "hashing-%d", &n); err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: hashing model %q must look like hashing-512", domain.ErrInvalidInput, model)
	}
	return n, nil
}
