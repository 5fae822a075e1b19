package driven

import (
	"context"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

// ManifestStore persists silo -> path -> FileRecord.
// Every write is atomic per file (write temp, then rename).
type ManifestStore interface {
	// Lookup returns the record for path in silo, or domain.ErrNotFound.
	Lookup(ctx context.Context, silo, path string) (*domain.FileRecord, error)

	// Upsert stores or replaces the record for path in silo.
	Upsert(ctx context.Context, silo, path string, rec domain.FileRecord) error

	// Remove deletes the record for path in silo. Missing records are not an error.
	Remove(ctx context.Context, silo, path string) error

	// List returns every record in silo sorted by path.
	List(ctx context.Context, silo string) ([]domain.FileRecord, error)

	// DropSilo removes every record in silo.
	DropSilo(ctx context.Context, silo string) error
}

// SiloStore persists the silo registry.
type SiloStore interface {
	// Get retrieves a silo by slug, or domain.ErrNotFound.
	Get(ctx context.Context, slug string) (*domain.Silo, error)

	// Save stores or updates a silo.
	Save(ctx context.Context, silo domain.Silo) error

	// Delete removes a silo. Missing silos are not an error.
	Delete(ctx context.Context, slug string) error

	// List returns all silos sorted by slug.
	List(ctx context.Context) ([]domain.Silo, error)
}
