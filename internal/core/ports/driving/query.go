package driving

import (
	"context"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

// QueryService answers questions against the library.
type QueryService interface {
	// Ask routes, retrieves and composes an answer. Scope and collection
	// failures are errors; LLM and rerank problems degrade the answer.
	Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)

	// Status counts the collection and checks the LLM is reachable.
	Status(ctx context.Context) (*domain.Status, error)
}
