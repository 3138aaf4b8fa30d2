package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// QuestionInput is the input schema for the ask and retrieve tools.
type QuestionInput struct {
	Question   string `json:"question" jsonschema:"the question about the manual"`
	Collection string `json:"collection,omitempty" jsonschema:"collection ID to search, or all (default)"`
	K          int    `json:"k,omitempty" jsonschema:"number of manual excerpts to use"`
}

// ChunkOutput is one selected manual excerpt.
type ChunkOutput struct {
	Collection   string  `json:"collection"`
	Text         string  `json:"text"`
	Distance     float64 `json:"distance"`
	KeywordMatch bool    `json:"keyword_match"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string        `json:"answer"`
	Outcome string        `json:"outcome"`
	Sources []ChunkOutput `json:"sources,omitempty"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Found           bool          `json:"found"`
	Context         string        `json:"context"`
	Keywords        []string      `json:"keywords,omitempty"`
	KeywordFiltered bool          `json:"keyword_filtered"`
	Chunks          []ChunkOutput `json:"chunks"`
}

// ListCollectionsInput is the (empty) input schema for the list_collections tool.
type ListCollectionsInput struct{}

// CollectionOutput describes one ingested manual.
type CollectionOutput struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Chunks         int    `json:"chunks"`
	Dimensions     int    `json:"dimensions"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

// ListCollectionsOutput is the output schema for the list_collections tool.
type ListCollectionsOutput struct {
	Collections []CollectionOutput `json:"collections"`
	Count       int                `json:"count"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Path string `json:"path" jsonschema:"absolute path of a PDF manual on the server host"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Collection string `json:"collection"`
	Pages      int    `json:"pages"`
	OCRPages   int    `json:"ocr_pages"`
	Chunks     int    `json:"chunks"`
	Duplicate  bool   `json:"duplicate"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the ingested manuals",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the manual excerpts relevant to a question without answering it",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List the ingested manuals",
	}, s.handleListCollections)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Ingest a PDF manual from a local path",
	}, s.handleIngest)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuestionInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Answer == nil {
		return nil, AskOutput{}, errAskUnavailable
	}

	answer, err := s.ports.Answer.Ask(ctx, input.Question, domain.Scope(input.Collection), s.ports.k(input.K))
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:  answer.Text,
		Outcome: string(answer.Outcome),
	}
	if answer.Retrieval != nil {
		output.Sources = chunkOutputs(answer.Retrieval.Selected)
	}
	return nil, output, nil
}

// handleRetrieve handles the retrieve tool invocation.
// Finding nothing is a normal result, not a tool error.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuestionInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	retrieval, err := s.ports.Retrieval.Retrieve(ctx, input.Question, domain.Scope(input.Collection), s.ports.k(input.K))
	if err != nil && !errors.Is(err, domain.ErrNoRelevantContext) {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{Chunks: []ChunkOutput{}}
	if retrieval != nil {
		output.Found = retrieval.HasContext()
		output.Context = retrieval.Context
		output.Keywords = retrieval.Keywords
		output.KeywordFiltered = retrieval.KeywordFiltered
		output.Chunks = chunkOutputs(retrieval.Selected)
	}
	return nil, output, nil
}

// handleListCollections handles the list_collections tool invocation.
func (s *Server) handleListCollections(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListCollectionsInput,
) (*mcp.CallToolResult, ListCollectionsOutput, error) {
	output := ListCollectionsOutput{Collections: []CollectionOutput{}}
	if s.ports.Collection == nil {
		return nil, output, nil
	}

	collections, err := s.ports.Collection.List(ctx)
	if err != nil {
		return nil, ListCollectionsOutput{}, fmt.Errorf("listing collections: %w", err)
	}

	for i := range collections {
		output.Collections = append(output.Collections, collectionOutput(&collections[i]))
	}
	output.Count = len(output.Collections)
	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestOutput{}, errIngestUnavailable
	}
	if input.Path == "" {
		return nil, IngestOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}

	result, err := s.ports.Ingest.IngestFile(ctx, input.Path, domain.IngestOptions{})
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		Collection: result.Collection.ID,
		Pages:      result.Pages,
		OCRPages:   result.OCRPages,
		Chunks:     result.Chunks,
		Duplicate:  result.Duplicate,
	}, nil
}

func chunkOutputs(candidates []domain.Candidate) []ChunkOutput {
	out := make([]ChunkOutput, len(candidates))
	for i, c := range candidates {
		out[i] = ChunkOutput{
			Collection:   c.CollectionID,
			Text:         c.Text,
			Distance:     c.Distance,
			KeywordMatch: c.KeywordMatch,
		}
	}
	return out
}

func collectionOutput(c *domain.Collection) CollectionOutput {
	return CollectionOutput{
		ID:             c.ID,
		Name:           c.Name,
		Chunks:         c.Count,
		Dimensions:     c.Dimensions,
		EmbeddingModel: c.EmbeddingModel,
	}
}
