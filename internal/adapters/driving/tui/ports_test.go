package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// MockAnswerService implements driving.AnswerService for testing.
type MockAnswerService struct {
	AskFunc func(ctx context.Context, question string, scope domain.Scope, k int) (*domain.Answer, error)
}

func (m *MockAnswerService) Ask(ctx context.Context, question string, scope domain.Scope, k int) (*domain.Answer, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, question, scope, k)
	}
	return &domain.Answer{Question: question, Text: domain.NotFoundAnswer, Outcome: domain.OutcomeNotFound}, nil
}

// MockCollectionService implements driving.CollectionService for testing.
type MockCollectionService struct {
	Collections []domain.Collection
	Err         error
}

func (m *MockCollectionService) List(_ context.Context) ([]domain.Collection, error) {
	return m.Collections, m.Err
}

func (m *MockCollectionService) Get(_ context.Context, id string) (*domain.Collection, error) {
	for i := range m.Collections {
		if m.Collections[i].ID == id {
			return &m.Collections[i], nil
		}
	}
	return nil, domain.ErrCollectionNotFound
}

// MockSettingsService implements driving.SettingsService for testing.
type MockSettingsService struct {
	Settings domain.AppSettings
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.Settings
	return &s, nil
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	m.Settings = *settings
	return nil
}

func (m *MockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.Settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *MockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.Settings.LLM.Provider, m.Settings.LLM.Model, m.Settings.LLM.APIKey = provider, model, apiKey
	return nil
}

func (m *MockSettingsService) SetRetrieval(retrieval domain.RetrievalSettings) error {
	m.Settings.Retrieval = retrieval
	return nil
}

func (m *MockSettingsService) SetExtraction(extraction domain.ExtractionSettings) error {
	m.Settings.Extraction = extraction
	return nil
}

func (m *MockSettingsService) SetIndex(index domain.IndexSettings) error {
	m.Settings.Index = index
	return nil
}

func (m *MockSettingsService) Validate() error                 { return nil }
func (m *MockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func newTestPorts() *Ports {
	return &Ports{
		Answer: &MockAnswerService{},
		Collection: &MockCollectionService{Collections: []domain.Collection{
			{ID: "doc_a1b2c3d4", Name: "mower.pdf", Count: 12},
			{ID: "doc_ffff0000", Name: "oven.pdf", Count: 40},
		}},
		Settings: &MockSettingsService{Settings: domain.DefaultAppSettings()},
		TopK:     3,
	}
}

func TestNewPorts(t *testing.T) {
	answer := &MockAnswerService{}
	collection := &MockCollectionService{}

	ports := NewPorts(answer, collection)

	require.NotNil(t, ports)
	assert.Equal(t, answer, ports.Answer)
	assert.Equal(t, collection, ports.Collection)
	assert.Nil(t, ports.Settings)
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{"all set", newTestPorts(), nil},
		{"answer only", &Ports{Answer: &MockAnswerService{}}, nil},
		{"missing answer", &Ports{Collection: &MockCollectionService{}}, ErrMissingAnswerService},
		{"negative k", &Ports{Answer: &MockAnswerService{}, TopK: -1}, ErrInvalidPorts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
