// Package ai provides factory functions for creating AI service adapters
// from the loaded settings.
package ai

import (
	"fmt"

	hashembed "github.com/custodia-labs/llmli/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/llmli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/llmli/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/llmli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/llmli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/llmli/internal/adapters/driven/rerank/crossencoder"
	"github.com/custodia-labs/llmli/internal/config"
	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
)

// providerNone disables the LLM.
const providerNone = "none"

// CreateEmbeddingService creates the embedding function the collection owns.
func CreateEmbeddingService(s *config.Settings) (driven.EmbeddingService, error) {
	switch domain.AIProvider(s.Embedding.Provider) {
	case domain.AIProviderHash:
		return hashembed.NewEmbeddingService(s.Embedding.Dimensions), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:           s.Embedding.BaseURL,
			Model:             s.Embedding.Model,
			Dimensions:        dimensionsFor(s),
			RequestsPerSecond: s.Embedding.RequestsPerSecond,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     s.LLM.APIKey,
			BaseURL:    openAIBaseURL(s.Embedding.BaseURL),
			Model:      s.Embedding.Model,
			Dimensions: dimensionsFor(s),
		}), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider %q: %w", s.Embedding.Provider, domain.ErrEmbeddingUnavailable)
	}
}

// CreateLLMService creates the chat service. It returns nil when the
// provider is "none"; answers then degrade to a source listing.
func CreateLLMService(s *config.Settings) (driven.LLMService, error) {
	if s.LLM.Provider == providerNone {
		return nil, nil
	}

	switch domain.AIProvider(s.LLM.Provider) {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: s.LLM.BaseURL,
			Model:   s.LLM.Model,
			Timeout: s.LLMTimeout(),
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  s.LLM.APIKey,
			BaseURL: openAIBaseURL(s.LLM.BaseURL),
			Model:   s.LLM.Model,
			Timeout: s.LLMTimeout(),
		}), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider %q: %w", s.LLM.Provider, domain.ErrLLMUnavailable)
	}
}

// CreateReranker creates the cross-encoder client, or nil when rerank is
// disabled or no server is configured. The nil is untyped so callers can
// compare the interface against nil.
func CreateReranker(s *config.Settings) driven.Reranker {
	if !s.Rerank.Enabled {
		return nil
	}
	r := crossencoder.New(crossencoder.Config{
		URL:     s.Rerank.URL,
		Model:   s.Rerank.Model,
		Timeout: s.RerankTimeout(),
	})
	if r == nil {
		return nil
	}
	return r
}

// dimensionsFor returns the configured dimension unless it is still the
// hash default, in which case the adapter picks the model's own size.
func dimensionsFor(s *config.Settings) int {
	if s.Embedding.Dimensions == config.Default("").Embedding.Dimensions {
		return 0
	}
	return s.Embedding.Dimensions
}

// openAIBaseURL maps the Ollama default URL to the adapter's own default so
// switching provider does not require also clearing base_url.
func openAIBaseURL(url string) string {
	if url == ollamaembed.DefaultBaseURL {
		return ""
	}
	return url
}
