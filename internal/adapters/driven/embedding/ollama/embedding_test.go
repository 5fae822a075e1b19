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
)

// echoServer answers /api/embed with one vector per input whose first
// component is the input's length.
func echoServer(t *testing.T, dims int, batches *[][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if batches != nil {
			*batches = append(*batches, req.Input)
		}
		resp := embedResponse{}
		for _, in := range req.Input {
			v := make([]float32, dims)
			v[0] = float32(len(in))
			resp.Embeddings = append(resp.Embeddings, v)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestEmbed_Success(t *testing.T) {
	server := echoServer(t, 3, nil)
	defer server.Close()

	s := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 3})
	vec, err := s.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{5, 0, 0}, vec)
}

func TestEmbed_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model not found"))
	}))
	defer server.Close()

	s := NewEmbeddingService(Config{BaseURL: server.URL})
	_, err := s.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model not found")
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	server := echoServer(t, 4, nil)
	defer server.Close()

	s := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 3})
	_, err := s.Embed(context.Background(), "hello")

	assert.ErrorIs(t, err, domain.ErrEmbeddingMismatch)
}

func TestEmbed_Unreachable(t *testing.T) {
	s := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := s.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbedBatch_SplitsIntoBatches(t *testing.T) {
	var batches [][]string
	server := echoServer(t, 2, &batches)
	defer server.Close()

	s := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 2, BatchSize: 2, RequestsPerSecond: 1000})
	vecs, err := s.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {2, 0}, {3, 0}}, vecs)
	assert.Equal(t, [][]string{{"a", "bb"}, {"ccc"}}, batches)
}

func TestEmbedBatch_Empty(t *testing.T) {
	s := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	vecs, err := s.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, DefaultBatchSize, s.batchSize)
	assert.NoError(t, s.Close())
}
