package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for manualqa resources.
	uriScheme = "manualqa://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing collections.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "collections",
		Name:        "collections",
		Description: "List of all ingested manuals",
		MIMEType:    "application/json",
	}, s.handleCollectionsResource)

	// Template for a single collection.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "collections/{collectionId}",
		Name:        "collection",
		Description: "Metadata of one ingested manual",
		MIMEType:    "application/json",
	}, s.handleCollectionResource)
}

// handleCollectionsResource returns a list of all collections.
func (s *Server) handleCollectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Collection == nil {
		return jsonResult(req.Params.URI, []CollectionOutput{})
	}

	collections, err := s.ports.Collection.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	infos := make([]CollectionOutput, len(collections))
	for i := range collections {
		infos[i] = collectionOutput(&collections[i])
	}
	return jsonResult(req.Params.URI, infos)
}

// handleCollectionResource returns the metadata of one collection.
func (s *Server) handleCollectionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Collection == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract collectionId from URI: manualqa://collections/{collectionId}
	id := extractCollectionID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	collection, err := s.ports.Collection.Get(ctx, id)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting collection: %w", err)
	}

	return jsonResult(req.Params.URI, collectionOutput(collection))
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractCollectionID extracts the collection ID from a URI like manualqa://collections/{collectionId}.
func extractCollectionID(uri string) string {
	const prefix = uriScheme + "collections/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
