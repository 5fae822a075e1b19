package driving

import (
	"context"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

// IngestService builds and maintains the collection from the filesystem.
type IngestService interface {
	// RunAdd walks req.Root and ingests new and changed files.
	RunAdd(ctx context.Context, req domain.AddRequest) (*domain.AddResult, error)

	// RunIndex drops the silo for req.Root and rebuilds it from scratch.
	RunIndex(ctx context.Context, req domain.AddRequest) (*domain.AddResult, error)

	// UpdateSingleFile re-ingests one file of an existing silo.
	UpdateSingleFile(ctx context.Context, path, silo string, allowCloud bool) (domain.FileStatus, string, error)

	// RemoveSingleFile removes one file of a silo from the collection and manifest.
	RemoveSingleFile(ctx context.Context, path, silo string) (domain.FileStatus, string, error)

	// RemoveSilo drops every chunk, manifest record and the registry entry of a silo.
	RemoveSilo(ctx context.Context, silo string) error
}
