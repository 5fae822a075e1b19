package driven

import "context"

// Reranker scores (query, document) pairs with a cross-encoder.
// Scores are comparable within one call only.
type Reranker interface {
	// Score returns one score per document, in input order. Higher is more relevant.
	Score(ctx context.Context, query string, documents []string) ([]float64, error)

	// ModelName returns the cross-encoder model name.
	ModelName() string
}
