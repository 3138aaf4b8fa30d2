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
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

func TestChat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Inspect the belt."}}`))
	}))
	defer srv.Close()

	s := NewLLMService(LLMConfig{BaseURL: srv.URL})
	out, err := s.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "sys"},
		{Role: driven.RoleUser, Content: "noise?"},
	}, driven.ChatOptions{MaxTokens: 200, StopWords: []string{"\n\n"}})
	require.NoError(t, err)
	assert.Equal(t, "Inspect the belt.", out)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "noise?", got.Messages[1].Content)
	assert.Equal(t, 200, got.Options.NumPredict)
	assert.Equal(t, []string{"\n\n"}, got.Options.Stop)
	assert.Equal(t, DefaultLLMModel, got.Model)
}

func TestChat_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	s := NewLLMService(LLMConfig{BaseURL: srv.URL})
	_, err := s.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "model not found")
}

func TestChat_ErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"out of memory"}`))
	}))
	defer srv.Close()

	_, err := NewLLMService(LLMConfig{BaseURL: srv.URL}).Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"}]}`))
	}))
	defer srv.Close()

	assert.NoError(t, NewLLMService(LLMConfig{BaseURL: srv.URL}).Ping(context.Background()))
	err := NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "mistral"}).Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestPing_Unreachable(t *testing.T) {
	s := NewLLMService(LLMConfig{BaseURL: "http://127.0.0.1:1"})
	assert.ErrorIs(t, s.Ping(context.Background()), domain.ErrLLMUnavailable)
}
