package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
	"github.com/custodia-labs/llmli/internal/core/ports/driving"
)

// Ensure SiloService implements the interface.
var _ driving.SiloService = (*SiloService)(nil)

// SiloService resolves and audits silos.
type SiloService struct {
	store driven.SiloStore
}

// NewSiloService creates a silo service.
func NewSiloService(store driven.SiloStore) *SiloService {
	return &SiloService{store: store}
}

// List returns every registered silo.
func (s *SiloService) List(ctx context.Context) ([]domain.Silo, error) {
	silos, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list silos: %w", err)
	}
	return silos, nil
}

// Resolve tries, in order: exact slug, exact display name, unique slug
// prefix, then the single best fuzzy match over names and slugs.
func (s *SiloService) Resolve(ctx context.Context, name string) (*domain.Silo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty silo name: %w", domain.ErrInvalidInput)
	}
	silos, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return ResolveSilo(silos, name)
}

// ResolveSilo applies the resolution rules of Resolve to silos.
func ResolveSilo(silos []domain.Silo, name string) (*domain.Silo, error) {
	for i := range silos {
		if silos[i].Slug == name {
			return &silos[i], nil
		}
	}

	if m := pick(silos, func(s domain.Silo) bool { return strings.EqualFold(s.Name, name) }); len(m) == 1 {
		return &m[0], nil
	} else if len(m) > 1 {
		return nil, ambiguous(name, m)
	}

	lower := strings.ToLower(name)
	if m := pick(silos, func(s domain.Silo) bool { return strings.HasPrefix(s.Slug, lower) }); len(m) == 1 {
		return &m[0], nil
	} else if len(m) > 1 {
		return nil, ambiguous(name, m)
	}

	candidates := make([]string, 0, 2*len(silos))
	for _, s := range silos {
		candidates = append(candidates, s.Name, s.Slug)
	}
	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%q: %w", name, domain.ErrUnknownSilo)
	}
	best := matches[0].Index / 2
	for _, m := range matches[1:] {
		if m.Score < matches[0].Score {
			break
		}
		if m.Index/2 != best {
			return nil, ambiguous(name, []domain.Silo{silos[best], silos[m.Index/2]})
		}
	}
	return &silos[best], nil
}

func pick(silos []domain.Silo, keep func(domain.Silo) bool) []domain.Silo {
	var out []domain.Silo
	for _, s := range silos {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func ambiguous(name string, silos []domain.Silo) error {
	slugs := make([]string, len(silos))
	for i, s := range silos {
		slugs[i] = s.Slug
	}
	return fmt.Errorf("%q matches %s: %w", name, strings.Join(slugs, ", "), domain.ErrAmbiguousSilo)
}

// Audit reports every pair of silos where one root contains the other.
func (s *SiloService) Audit(ctx context.Context) ([]domain.SiloOverlap, error) {
	silos, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.SiloOverlap
	for i := range silos {
		for j := range silos {
			if i != j && Contains(silos[i].RootPath, silos[j].RootPath) {
				out = append(out, domain.SiloOverlap{Outer: silos[i], Inner: silos[j]})
			}
		}
	}
	return out, nil
}

// Contains reports whether path lies inside root. Equal paths are
// contained.
func Contains(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
