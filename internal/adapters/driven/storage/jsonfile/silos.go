package jsonfile

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
)

// Ensure SiloStore implements the interface.
var _ driven.SiloStore = (*SiloStore)(nil)

// SiloStore persists the silo registry as a JSON array in silos.json.
type SiloStore struct {
	mu    sync.RWMutex
	path  string
	silos map[string]domain.Silo
}

// NewSiloStore loads the registry at path, or starts empty if absent.
func NewSiloStore(path string) (*SiloStore, error) {
	var list []domain.Silo
	if err := readJSON(path, &list); err != nil {
		return nil, err
	}
	s := &SiloStore{path: path, silos: make(map[string]domain.Silo, len(list))}
	for _, silo := range list {
		s.silos[silo.Slug] = silo
	}
	return s, nil
}

// Get retrieves a silo by slug.
func (s *SiloStore) Get(_ context.Context, slug string) (*domain.Silo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	silo, ok := s.silos[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &silo, nil
}

// Save stores or updates a silo and persists the registry.
func (s *SiloStore) Save(_ context.Context, silo domain.Silo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.silos[silo.Slug]
	s.silos[silo.Slug] = silo
	if err := writeJSON(s.path, s.sorted()); err != nil {
		if had {
			s.silos[silo.Slug] = prev
		} else {
			delete(s.silos, silo.Slug)
		}
		return err
	}
	return nil
}

// Delete removes a silo and persists the registry.
func (s *SiloStore) Delete(_ context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.silos[slug]
	if !had {
		return nil
	}
	delete(s.silos, slug)
	if err := writeJSON(s.path, s.sorted()); err != nil {
		s.silos[slug] = prev
		return err
	}
	return nil
}

// List returns all silos sorted by slug.
func (s *SiloStore) List(_ context.Context) ([]domain.Silo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(), nil
}

// sorted returns the registry as a slug-ordered slice (caller must hold lock).
func (s *SiloStore) sorted() []domain.Silo {
	out := make([]domain.Silo, 0, len(s.silos))
	for _, silo := range s.silos {
		out = append(out, silo)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
