package mcp

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	retrieval *domain.Retrieval
	err       error

	question string
	scope    domain.Scope
	k        int
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	question string,
	scope domain.Scope,
	k int,
) (*domain.Retrieval, error) {
	m.question, m.scope, m.k = question, scope, k
	return m.retrieval, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	err    error

	scope domain.Scope
	k     int
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, scope domain.Scope, k int) (*domain.Answer, error) {
	m.scope, m.k = scope, k
	return m.answer, m.err
}

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	collections []domain.Collection
	err         error
}

func (m *mockCollectionService) List(_ context.Context) ([]domain.Collection, error) {
	return m.collections, m.err
}

func (m *mockCollectionService) Get(_ context.Context, id string) (*domain.Collection, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.collections {
		if m.collections[i].ID == id {
			return &m.collections[i], nil
		}
	}
	return nil, domain.ErrCollectionNotFound
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result *domain.IngestResult
	err    error
	path   string
}

func (m *mockIngestService) Ingest(_ context.Context, _ domain.Document, _ domain.IngestOptions) (*domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestService) IngestFile(_ context.Context, path string, _ domain.IngestOptions) (*domain.IngestResult, error) {
	m.path = path
	return m.result, m.err
}
