package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService selects answer context with a vector stage followed by a
// keyword veto.
type RetrievalService struct {
	embedder  driven.EmbeddingService
	index     driven.IndexStore
	overfetch int
}

// RetrievalOption configures a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithOverfetch sets the vector-stage multiplier. Values below
// domain.MinOverfetch are raised to it.
func WithOverfetch(n int) RetrievalOption {
	return func(s *RetrievalService) {
		s.overfetch = n
	}
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	embedder driven.EmbeddingService,
	index driven.IndexStore,
	opts ...RetrievalOption,
) *RetrievalService {
	s := &RetrievalService{
		embedder:  embedder,
		index:     index,
		overfetch: domain.DefaultOverfetch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchSize returns how many candidates the vector stage requests per collection.
func (s *RetrievalService) FetchSize(k int) int {
	return max(domain.MinOverfetch, s.overfetch) * k
}

// Retrieve runs hybrid retrieval for question within scope.
func (s *RetrievalService) Retrieve(
	ctx context.Context, question string, scope domain.Scope, k int,
) (*domain.Retrieval, error) {
	logger.Section("Retrieval")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidQuery)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidQuery, k)
	}

	result := &domain.Retrieval{
		Question: question,
		Scope:    scope,
		Keywords: ExtractKeywords(question),
	}
	logger.Debug("Question: %q, scope: %s, k: %d", question, scope, k)
	logger.Debug("Keywords: %v", result.Keywords)

	ids, err := s.resolveScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		logger.Info("No collections to search")
		return result, domain.ErrNoRelevantContext
	}

	query, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	fetch := s.FetchSize(k)
	if scope.IsAll() {
		result.Candidates, err = s.searchAll(ctx, ids, query, fetch, k)
	} else {
		result.Candidates, err = s.searchOne(ctx, ids[0], query, fetch)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("Vector stage: %d candidates (fetch %d per collection)", len(result.Candidates), fetch)

	result.Selected, result.KeywordFiltered = selectCandidates(result.Candidates, result.Keywords, k)
	result.Context = domain.JoinContext(result.Selected)

	if !result.HasContext() {
		logger.Info("No relevant context found")
		return result, domain.ErrNoRelevantContext
	}

	logger.Info("Selected %d chunks (keyword filtered: %t)", len(result.Selected), result.KeywordFiltered)
	return result, nil
}

// resolveScope returns the collection IDs to search.
// A named collection that does not exist is an error; an empty store is not.
func (s *RetrievalService) resolveScope(ctx context.Context, scope domain.Scope) ([]string, error) {
	if !scope.IsAll() {
		id := scope.CollectionID()
		exists, err := s.index.Exists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("checking collection %s: %w", id, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, id)
		}
		return []string{id}, nil
	}

	collections, err := s.index.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	ids := make([]string, 0, len(collections))
	for _, c := range collections {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// searchOne returns one collection's nearest chunks in ascending L2 order.
func (s *RetrievalService) searchOne(ctx context.Context, id string, query []float32, fetch int) ([]domain.Candidate, error) {
	handle, err := s.index.Open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", id, err)
	}

	hits, err := handle.Search(ctx, query, fetch)
	if err != nil {
		return nil, fmt.Errorf("searching collection %s: %w", id, err)
	}

	candidates := make([]domain.Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = domain.Candidate{CollectionID: id, Text: h.Text, Distance: h.Distance}
	}
	return candidates, nil
}

// searchAll pools every collection's nearest chunks, drops repeated texts,
// orders the pool by text length, longest first, and keeps the first k.
// Distances from different collections are not compared.
func (s *RetrievalService) searchAll(ctx context.Context, ids []string, query []float32, fetch, k int) ([]domain.Candidate, error) {
	var pool []domain.Candidate
	for _, id := range ids {
		candidates, err := s.searchOne(ctx, id, query, fetch)
		if errors.Is(err, domain.ErrDimensionMismatch) {
			logger.Warn("Skipping collection %s: built with a different embedding model", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		pool = append(pool, candidates...)
	}

	pool = dedupByText(pool)
	sort.SliceStable(pool, func(i, j int) bool {
		return len(pool[i].Text) > len(pool[j].Text)
	})
	return pool[:min(k, len(pool))], nil
}

// dedupByText keeps the first candidate for each distinct text.
func dedupByText(candidates []domain.Candidate) []domain.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if _, ok := seen[c.Text]; ok {
			continue
		}
		seen[c.Text] = struct{}{}
		out = append(out, c)
	}
	return out
}

// selectCandidates applies the keyword veto: when any candidate contains a
// keyword, only matching candidates are eligible. The first k eligible
// candidates are returned in pool order.
func selectCandidates(pool []domain.Candidate, keywords []string, k int) ([]domain.Candidate, bool) {
	var matched []domain.Candidate
	for i := range pool {
		pool[i].KeywordMatch = containsKeyword(pool[i].Text, keywords)
		if pool[i].KeywordMatch {
			matched = append(matched, pool[i])
		}
	}
	logger.Debug("Keyword stage: %d of %d candidates match", len(matched), len(pool))

	if len(matched) > 0 {
		return matched[:min(k, len(matched))], true
	}
	selected := make([]domain.Candidate, min(k, len(pool)))
	copy(selected, pool)
	return selected, false
}
