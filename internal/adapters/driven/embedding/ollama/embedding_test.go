package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func newServer(t *testing.T, batches *[]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"nomic-embed-text:latest"}]}`))
		case "/api/embed":
			var req embedRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			*batches = append(*batches, len(req.Input))
			resp := embedResponse{}
			for _, in := range req.Input {
				resp.Embeddings = append(resp.Embeddings, []float64{float64(len(in)), 0, 1})
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultDimensions, s.Dimensions())
}

func TestEmbedBatch_BatchesAndLearnsDimensions(t *testing.T) {
	var batches []int
	srv := newServer(t, &batches)
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL, BatchSize: 2})
	out, err := s.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []float32{3, 0, 1}, out[2])
	assert.Equal(t, []int{2, 1}, batches)
	assert.Equal(t, 3, s.Dimensions())
}

func TestEmbed_Single(t *testing.T) {
	var batches []int
	srv := newServer(t, &batches)
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	v, err := s.Embed(context.Background(), "four")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 0, 1}, v)
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	_, err := s.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestPing(t *testing.T) {
	var batches []int
	srv := newServer(t, &batches)
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	assert.NoError(t, s.Ping(context.Background()))

	missing := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "mxbai-embed-large"})
	assert.ErrorIs(t, missing.Ping(context.Background()), domain.ErrEmbeddingUnavailable)

	down := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	assert.ErrorIs(t, down.Ping(context.Background()), domain.ErrEmbeddingUnavailable)
}
