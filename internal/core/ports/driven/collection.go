package driven

import (
	"context"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

// CollectionName is the single collection every silo lives in.
const CollectionName = "llmli"

// Collection is the vector store: one physical collection partitioned by
// the silo metadata field. The collection owns its embedding function.
type Collection interface {
	// Add inserts chunks. Existing IDs are overwritten.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Query embeds text and returns up to n nearest chunks matching where,
	// ordered by ascending distance.
	Query(ctx context.Context, text string, n int, where domain.Where) ([]domain.Hit, error)

	// Get returns chunks by ID, or every chunk matching where when ids is empty.
	// limit <= 0 means no limit.
	Get(ctx context.Context, ids []string, where domain.Where, limit int) ([]domain.Hit, error)

	// Delete removes chunks by ID, or every chunk matching where when ids is empty.
	// Deleting with an empty where and no ids is a no-op.
	Delete(ctx context.Context, ids []string, where domain.Where) error

	// Count returns the number of chunks matching where.
	Count(ctx context.Context, where domain.Where) (int, error)

	// Close releases resources.
	Close() error
}

// AtomicReplacer is implemented by collections that can swap a file's chunk
// set in one transaction, so concurrent queries see either set but never both.
type AtomicReplacer interface {
	Replace(ctx context.Context, deleteIDs []string, add []domain.Chunk) error
}

// KeywordSearcher is implemented by collections that support lexical search.
// It enables the hybrid (keyword + vector) stage-1 pass.
type KeywordSearcher interface {
	// KeywordSearch returns up to n chunks matching where that contain any of
	// terms, ordered by descending match count (stored in Hit.Score).
	KeywordSearch(ctx context.Context, terms []string, n int, where domain.Where) ([]domain.Hit, error)
}
