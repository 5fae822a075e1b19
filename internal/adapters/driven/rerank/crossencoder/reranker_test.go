package crossencoder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

func TestScore_MapsByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rerank", r.URL.Path)

		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "income", req.Query)
		assert.Equal(t, []string{"a", "b"}, req.Texts)

		_, _ = w.Write([]byte(`[{"index":1,"score":0.9},{"index":0,"score":-1.5}]`))
	}))
	defer server.Close()

	r := New(Config{URL: server.URL})
	scores, err := r.Score(context.Background(), "income", []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, []float64{-1.5, 0.9}, scores)
	assert.Equal(t, DefaultModel, r.ModelName())
}

func TestScore_EmptyInput(t *testing.T) {
	r := New(Config{URL: "http://unused"})
	scores, err := r.Score(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestScore_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := New(Config{URL: server.URL}).Score(context.Background(), "q", []string{"x"})
	assert.ErrorIs(t, err, domain.ErrRerankUnavailable)
}

func TestScore_MissingDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"index":0,"score":1}]`))
	}))
	defer server.Close()

	_, err := New(Config{URL: server.URL}).Score(context.Background(), "q", []string{"x", "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing document 1")
}

func TestNew_EmptyURLIsNil(t *testing.T) {
	assert.Nil(t, New(Config{}))
}
