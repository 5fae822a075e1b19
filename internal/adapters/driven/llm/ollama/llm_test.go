package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
)

func TestChat_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.1:8b", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.InDelta(t, 0.1, req.Options.Temperature, 1e-9)
		assert.Equal(t, 256, req.Options.NumPredict)

		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: " It is 42.\n"},
			Done:    true,
		})
	}))
	defer server.Close()

	s := NewLLMService(LLMConfig{BaseURL: server.URL + "/"})
	out, err := s.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "be brief"},
		{Role: driven.RoleUser, Content: "answer?"},
	}, driven.ChatOptions{Temperature: 0.1, MaxTokens: 256})

	require.NoError(t, err)
	assert.Equal(t, "It is 42.", out)
}

func TestChat_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	s := NewLLMService(LLMConfig{BaseURL: server.URL})
	_, err := s.Chat(context.Background(), nil, driven.ChatOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "status 404")
}

func TestChat_ErrorInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"out of memory"}`))
	}))
	defer server.Close()

	_, err := NewLLMService(LLMConfig{BaseURL: server.URL}).Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "out of memory")
}

func TestChat_Unreachable(t *testing.T) {
	s := NewLLMService(LLMConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := s.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestPing(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		tags    string
		wantErr bool
	}{
		{name: "exact", model: "llama3.1:8b", tags: `{"models":[{"name":"llama3.1:8b"}]}`},
		{name: "latest tag", model: "mistral", tags: `{"models":[{"name":"mistral:latest"}]}`},
		{name: "not pulled", model: "llama3.1:8b", tags: `{"models":[{"name":"qwen2:7b"}]}`, wantErr: true},
		{name: "empty", model: "llama3.1:8b", tags: `{"models":[]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/tags", r.URL.Path)
				_, _ = w.Write([]byte(tt.tags))
			}))
			defer server.Close()

			err := NewLLMService(LLMConfig{BaseURL: server.URL, Model: tt.model}).Ping(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewLLMService_Defaults(t *testing.T) {
	s := NewLLMService(LLMConfig{})
	assert.Equal(t, DefaultLLMModel, s.ModelName())
	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, DefaultLLMTimeout, s.client.Timeout)
	assert.NoError(t, s.Close())
}
