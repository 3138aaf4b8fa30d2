// Package chunker provides a fixed-window token chunker.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of whitespace-delimited tokens per chunk.
const DefaultChunkSize = 300

// Processor splits text into non-overlapping windows of whitespace-delimited tokens.
// Boundaries depend only on the text and the window size.
type Processor struct {
	chunkSize int
	newID     func() string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the default window size in tokens.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithIDFunc overrides chunk ID generation.
func WithIDFunc(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		newID:     func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the default window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Chunk splits text into windows of maxTokens tokens. The final window holds the
// remainder. A non-positive maxTokens falls back to the configured default.
func (p *Processor) Chunk(documentID, text string, maxTokens int) []domain.Chunk {
	if maxTokens <= 0 {
		maxTokens = p.chunkSize
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, 0, (len(tokens)+maxTokens-1)/maxTokens)
	for start := 0; start < len(tokens); start += maxTokens {
		end := start + maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}

		chunks = append(chunks, domain.Chunk{
			ID:         p.newID(),
			DocumentID: documentID,
			Index:      len(chunks),
			Text:       strings.Join(tokens[start:end], " "),
		})
	}

	return chunks
}
