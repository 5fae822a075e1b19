package driving

import (
	"context"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

// SiloService manages the silo registry.
type SiloService interface {
	// List returns every registered silo sorted by slug.
	List(ctx context.Context) ([]domain.Silo, error)

	// Resolve finds a silo by slug, slug prefix or display name.
	Resolve(ctx context.Context, name string) (*domain.Silo, error)

	// Audit reports silos whose roots nest inside one another.
	Audit(ctx context.Context) ([]domain.SiloOverlap, error)
}
