package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func batteryRetrieval() *domain.Retrieval {
	selected := []domain.Candidate{
		{CollectionID: "car_1a2b3c4d", Text: "Replace the battery every 2 years.", Distance: 0.4, KeywordMatch: true},
	}
	return &domain.Retrieval{
		Question:        "battery",
		Keywords:        []string{"battery"},
		Selected:        selected,
		KeywordFiltered: true,
		Context:         domain.JoinContext(selected),
	}
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		answer := &mockAnswerService{answer: &domain.Answer{
			Text:      "Every two years.",
			Outcome:   domain.OutcomeAnswered,
			Retrieval: batteryRetrieval(),
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Answer: answer, TopK: 4})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, QuestionInput{Question: "battery", Collection: "car_1a2b3c4d"})

		require.NoError(t, err)
		assert.Equal(t, "Every two years.", output.Answer)
		assert.Equal(t, "answered", output.Outcome)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "car_1a2b3c4d", output.Sources[0].Collection)
		assert.Equal(t, domain.Scope("car_1a2b3c4d"), answer.scope)
		assert.Equal(t, 4, answer.k)
	})

	t.Run("not found answer is not an error", func(t *testing.T) {
		answer := &mockAnswerService{answer: &domain.Answer{
			Text:    domain.NotFoundAnswer,
			Outcome: domain.OutcomeNotFound,
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Answer: answer})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, QuestionInput{Question: "warp drive"})

		require.NoError(t, err)
		assert.Equal(t, domain.NotFoundAnswer, output.Answer)
		assert.Empty(t, output.Sources)
	})

	t.Run("missing answer service", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, QuestionInput{Question: "battery"})

		assert.ErrorIs(t, err, errAskUnavailable)
	})

	t.Run("propagates invalid query", func(t *testing.T) {
		answer := &mockAnswerService{err: domain.ErrInvalidQuery}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Answer: answer})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, QuestionInput{Question: " "})

		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns context and chunks", func(t *testing.T) {
		retrieval := &mockRetrievalService{retrieval: batteryRetrieval()}
		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, QuestionInput{Question: "battery", K: 2})

		require.NoError(t, err)
		assert.True(t, output.Found)
		assert.True(t, output.KeywordFiltered)
		assert.Equal(t, "Replace the battery every 2 years.", output.Context)
		assert.Equal(t, []string{"battery"}, output.Keywords)
		require.Len(t, output.Chunks, 1)
		assert.True(t, output.Chunks[0].KeywordMatch)
		assert.Equal(t, 2, retrieval.k)
		assert.True(t, retrieval.scope.IsAll())
	})

	t.Run("no relevant context is not an error", func(t *testing.T) {
		retrieval := &mockRetrievalService{retrieval: &domain.Retrieval{}, err: domain.ErrNoRelevantContext}
		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, QuestionInput{Question: "warp drive"})

		require.NoError(t, err)
		assert.False(t, output.Found)
		assert.Empty(t, output.Chunks)
	})

	t.Run("propagates collection not found", func(t *testing.T) {
		retrieval := &mockRetrievalService{err: domain.ErrCollectionNotFound}
		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, QuestionInput{Question: "battery", Collection: "nope"})

		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
	})
}

func TestServer_handleListCollections(t *testing.T) {
	ctx := context.Background()

	t.Run("lists collections", func(t *testing.T) {
		collections := &mockCollectionService{collections: []domain.Collection{
			{ID: "car_1a2b3c4d", Name: "car.pdf", Count: 12, Dimensions: 512, EmbeddingModel: "hashing-512"},
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Collection: collections})
		require.NoError(t, err)

		_, output, err := server.handleListCollections(ctx, nil, ListCollectionsInput{})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, CollectionOutput{
			ID:             "car_1a2b3c4d",
			Name:           "car.pdf",
			Chunks:         12,
			Dimensions:     512,
			EmbeddingModel: "hashing-512",
		}, output.Collections[0])
	})

	t.Run("nil collection service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, output, err := server.handleListCollections(ctx, nil, ListCollectionsInput{})

		require.NoError(t, err)
		assert.Zero(t, output.Count)
		assert.NotNil(t, output.Collections)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		collections := &mockCollectionService{err: errors.New("disk error")}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Collection: collections})
		require.NoError(t, err)

		_, _, err = server.handleListCollections(ctx, nil, ListCollectionsInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing collections")
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests a file", func(t *testing.T) {
		ingest := &mockIngestService{result: &domain.IngestResult{
			Collection: domain.Collection{ID: "car_1a2b3c4d"},
			Pages:      10,
			OCRPages:   2,
			Chunks:     30,
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Ingest: ingest})
		require.NoError(t, err)

		_, output, err := server.handleIngest(ctx, nil, IngestInput{Path: "/manuals/car.pdf"})

		require.NoError(t, err)
		assert.Equal(t, "/manuals/car.pdf", ingest.path)
		assert.Equal(t, IngestOutput{Collection: "car_1a2b3c4d", Pages: 10, OCRPages: 2, Chunks: 30}, output)
	})

	t.Run("path is required", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Ingest: &mockIngestService{}})
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("propagates extraction empty", func(t *testing.T) {
		ingest := &mockIngestService{err: domain.ErrExtractionEmpty}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Ingest: ingest})
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Path: "/manuals/scan.pdf"})

		assert.ErrorIs(t, err, domain.ErrExtractionEmpty)
	})

	t.Run("missing ingest service", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Path: "/manuals/car.pdf"})

		assert.ErrorIs(t, err, errIngestUnavailable)
	})
}
