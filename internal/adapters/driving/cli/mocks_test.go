package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// mockIngestService records the files it was asked to ingest.
type mockIngestService struct {
	results map[string]*domain.IngestResult
	errs    map[string]error
	paths   []string
	opts    []domain.IngestOptions
}

func (m *mockIngestService) Ingest(_ context.Context, doc domain.Document, opts domain.IngestOptions) (*domain.IngestResult, error) {
	return m.IngestFile(context.Background(), doc.Name, opts)
}

func (m *mockIngestService) IngestFile(_ context.Context, path string, opts domain.IngestOptions) (*domain.IngestResult, error) {
	m.paths = append(m.paths, path)
	m.opts = append(m.opts, opts)
	if err := m.errs[path]; err != nil {
		return nil, err
	}
	if r, ok := m.results[path]; ok {
		return r, nil
	}
	return &domain.IngestResult{Collection: domain.Collection{ID: "doc_00000000"}, Pages: 1, Chunks: 1}, nil
}

// mockRetrievalService returns a fixed retrieval.
type mockRetrievalService struct {
	retrieval *domain.Retrieval
	err       error

	question string
	scope    domain.Scope
	k        int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, question string, scope domain.Scope, k int) (*domain.Retrieval, error) {
	m.question, m.scope, m.k = question, scope, k
	return m.retrieval, m.err
}

// mockAnswerService returns a fixed answer.
type mockAnswerService struct {
	answer *domain.Answer
	err    error

	question string
	scope    domain.Scope
	k        int
}

func (m *mockAnswerService) Ask(_ context.Context, question string, scope domain.Scope, k int) (*domain.Answer, error) {
	m.question, m.scope, m.k = question, scope, k
	return m.answer, m.err
}

// mockCollectionService serves a fixed collection list.
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

// mockHistoryService serves fixed history records.
type mockHistoryService struct {
	queries []domain.QueryRecord
	ingests []domain.IngestRecord
	err     error
	limit   int
}

func (m *mockHistoryService) Recent(_ context.Context, limit int) ([]domain.QueryRecord, error) {
	m.limit = limit
	return m.queries, m.err
}

func (m *mockHistoryService) RecentIngests(_ context.Context, limit int) ([]domain.IngestRecord, error) {
	m.limit = limit
	return m.ingests, m.err
}

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings      domain.AppSettings
	validateErr   error
	setErr        error
	embeddingPing error
	llmPing       error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return m.setErr
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM.Provider, m.settings.LLM.Model, m.settings.LLM.APIKey = provider, model, apiKey
	return m.setErr
}

func (m *mockSettingsService) SetRetrieval(retrieval domain.RetrievalSettings) error {
	if err := retrieval.Validate(); err != nil {
		return err
	}
	m.settings.Retrieval = retrieval
	return m.setErr
}

func (m *mockSettingsService) SetExtraction(extraction domain.ExtractionSettings) error {
	m.settings.Extraction = extraction
	return m.setErr
}

func (m *mockSettingsService) SetIndex(index domain.IndexSettings) error {
	m.settings.Index = index
	return m.setErr
}

func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return m.embeddingPing }
func (m *mockSettingsService) ValidateLLMConfig() error        { return m.llmPing }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	ingest     *mockIngestService
	retrieval  *mockRetrievalService
	answer     *mockAnswerService
	collection *mockCollectionService
	history    *mockHistoryService
	settings   *mockSettingsService
}

// setupTestServices installs mocks for every service and returns them with
// a cleanup that restores the previous services.
func setupTestServices() (*testServices, func()) {
	old := Services{
		Ingest:     ingestService,
		Retrieval:  retrievalService,
		Answer:     answerService,
		Collection: collectionService,
		History:    historyService,
		Settings:   settingsService,
		TopK:       defaultTopK,
	}

	ts := &testServices{
		ingest:     &mockIngestService{},
		retrieval:  &mockRetrievalService{},
		answer:     &mockAnswerService{},
		collection: &mockCollectionService{},
		history:    &mockHistoryService{},
		settings:   newMockSettingsService(),
	}
	SetServices(Services{
		Ingest:     ts.ingest,
		Retrieval:  ts.retrieval,
		Answer:     ts.answer,
		Collection: ts.collection,
		History:    ts.history,
		Settings:   ts.settings,
		TopK:       3,
	})

	return ts, func() { SetServices(old) }
}

// execute runs the root command with args and returns its combined output.
// Flags are reset afterwards so tests do not leak values into each other.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			if f.Value.Type() != "stringSlice" {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
	flagOCRLanguages = nil
}
