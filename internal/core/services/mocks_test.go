package services

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	mu        sync.Mutex
	embedding []float32
	vectors   map[string][]float32
	embedErr  error
	dims      int
	calls     int
	closed    bool
}

func (m *mockEmbeddingService) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	if m.embedding != nil {
		return m.embedding
	}
	return []float32{1, 0, 0}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.vectorFor(text)
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 3
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return m.embedErr
}

func (m *mockEmbeddingService) Close() error {
	m.closed = true
	return nil
}

func (m *mockEmbeddingService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockCollection implements driven.CollectionHandle for testing.
type mockCollection struct {
	info       domain.Collection
	hits       []driven.IndexHit
	searchErr  error
	addErr     error
	persistErr error

	searchK   []int
	added     []domain.Chunk
	vectors   [][]float32
	persisted int
	committed int
	rollbacks int
}

func (m *mockCollection) Info() domain.Collection {
	info := m.info
	info.Count = len(m.added) + m.info.Count
	return info
}

func (m *mockCollection) SetMetadata(name, contentHash, model string) {
	m.info.Name = name
	m.info.ContentHash = contentHash
	m.info.EmbeddingModel = model
}

func (m *mockCollection) Add(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.added = append(m.added, chunks...)
	m.vectors = append(m.vectors, vectors...)
	return nil
}

func (m *mockCollection) Search(_ context.Context, _ []float32, k int) ([]driven.IndexHit, error) {
	m.searchK = append(m.searchK, k)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockCollection) Persist(_ context.Context) error {
	if m.persistErr != nil {
		return m.persistErr
	}
	m.persisted++
	m.committed = len(m.added)
	return nil
}

func (m *mockCollection) Rollback(_ context.Context) error {
	m.rollbacks++
	m.added = m.added[:m.committed]
	m.vectors = m.vectors[:m.committed]
	return nil
}

// mockIndexStore implements driven.IndexStore for testing.
// A collection exists when it is in the map with a non-zero Count or added chunks.
type mockIndexStore struct {
	collections map[string]*mockCollection
	listErr     error
	existsErr   error
	openErr     error
}

func newMockIndexStore() *mockIndexStore {
	return &mockIndexStore{collections: make(map[string]*mockCollection)}
}

// withHits registers a populated collection returning hits in the given order.
func (m *mockIndexStore) withHits(id string, hits ...driven.IndexHit) *mockCollection {
	c := &mockCollection{
		info: domain.Collection{ID: id, Count: len(hits), Dimensions: 3},
		hits: hits,
	}
	m.collections[id] = c
	return c
}

func (m *mockIndexStore) Open(_ context.Context, id string) (driven.CollectionHandle, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	c, ok := m.collections[id]
	if !ok {
		c = &mockCollection{info: domain.Collection{ID: id}}
		m.collections[id] = c
	}
	return c, nil
}

func (m *mockIndexStore) Exists(_ context.Context, id string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	c, ok := m.collections[id]
	return ok && c.Info().Count > 0, nil
}

func (m *mockIndexStore) List(_ context.Context) ([]domain.Collection, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Collection
	for _, c := range m.collections {
		if info := c.Info(); info.Count > 0 {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockIndexStore) Close() error {
	return nil
}

// mockPageReader implements driven.PageReader for testing.
type mockPageReader struct {
	pages []string
	err   error
}

func (m *mockPageReader) ReadPages(_ context.Context, _ []byte) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.pages, nil
}

// mockOCREngine implements driven.OCREngine for testing.
type mockOCREngine struct {
	texts     map[int]string
	errs      map[int]error
	calls     []int
	languages []string
}

func (m *mockOCREngine) Recognise(_ context.Context, _ []byte, pageIndex int, languages []string) (string, error) {
	m.calls = append(m.calls, pageIndex)
	m.languages = languages
	if err := m.errs[pageIndex]; err != nil {
		return "", err
	}
	return m.texts[pageIndex], nil
}

func (m *mockOCREngine) Name() string {
	return "mock-ocr"
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	reply    string
	chatErr  error
	panics   bool
	messages []driven.ChatMessage
	opts     driven.ChatOptions
	calls    int
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.calls++
	m.messages = messages
	m.opts = opts
	if m.panics {
		panic("adapter bug")
	}
	return m.reply, m.chatErr
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockHistoryStore implements driven.HistoryStore for testing.
type mockHistoryStore struct {
	queries []domain.QueryRecord
	ingests []domain.IngestRecord
	err     error
}

func (m *mockHistoryStore) RecordQuery(_ context.Context, record domain.QueryRecord) error {
	if m.err != nil {
		return m.err
	}
	m.queries = append(m.queries, record)
	return nil
}

func (m *mockHistoryStore) RecentQueries(_ context.Context, limit int) ([]domain.QueryRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.queries[:min(limit, len(m.queries))], nil
}

func (m *mockHistoryStore) RecordIngest(_ context.Context, record domain.IngestRecord) error {
	if m.err != nil {
		return m.err
	}
	m.ingests = append(m.ingests, record)
	return nil
}

func (m *mockHistoryStore) RecentIngests(_ context.Context, limit int) ([]domain.IngestRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ingests[:min(limit, len(m.ingests))], nil
}

// mockAIConfigValidator implements driven.AIConfigValidator for testing.
type mockAIConfigValidator struct {
	embedErr error
	llmErr   error
}

func (m *mockAIConfigValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.embedErr
}

func (m *mockAIConfigValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

// mockRetrievalService implements driving.RetrievalService for testing.
type mockRetrievalService struct {
	retrieval *domain.Retrieval
	err       error
	calls     int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ string, _ domain.Scope, _ int) (*domain.Retrieval, error) {
	m.calls++
	return m.retrieval, m.err
}

// hit is shorthand for an index hit.
func hit(text string, distance float64) driven.IndexHit {
	return driven.IndexHit{Text: text, Distance: distance}
}

// texts returns candidate texts in order.
func texts(candidates []domain.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Text
	}
	return out
}
