package domain

import "strings"

// ContextSeparator joins selected chunk texts into the answerer's context.
const ContextSeparator = "\n---\n"

// Retrieval defaults.
const (
	// DefaultTopK is the number of chunks passed to the answerer.
	DefaultTopK = 3

	// DefaultOverfetch multiplies k when querying the vector index.
	DefaultOverfetch = 2

	// MinOverfetch is the smallest allowed over-fetch multiplier.
	MinOverfetch = 2
)

// Candidate is one chunk returned by vector search.
type Candidate struct {
	// CollectionID is the collection the chunk came from.
	CollectionID string

	// Text is the chunk text.
	Text string

	// Distance is the L2 distance to the query vector.
	Distance float64

	// KeywordMatch is true when the text contains a question keyword.
	KeywordMatch bool
}

// Retrieval is the outcome of hybrid retrieval for one question.
type Retrieval struct {
	// Question is the trimmed question text.
	Question string

	// Scope is the scope that was searched.
	Scope Scope

	// Keywords are the lexical tokens extracted from the question.
	Keywords []string

	// Candidates is the vector-stage pool before the keyword filter.
	Candidates []Candidate

	// Selected are the chunks that make up Context, in order.
	Selected []Candidate

	// KeywordFiltered is true when the keyword veto chose Selected.
	KeywordFiltered bool

	// Context is the selected texts joined with ContextSeparator.
	Context string
}

// HasContext reports whether the retrieval produced non-blank context.
func (r *Retrieval) HasContext() bool {
	return r != nil && strings.TrimSpace(r.Context) != ""
}

// JoinContext joins candidate texts with ContextSeparator.
func JoinContext(candidates []Candidate) string {
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}
	return strings.Join(texts, ContextSeparator)
}
