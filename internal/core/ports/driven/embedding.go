package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The Collection calls it for both documents and queries.
//
// Implementations:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI-compatible endpoints
//   - Offline feature hashing
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
