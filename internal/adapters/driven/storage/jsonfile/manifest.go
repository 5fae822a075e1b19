package jsonfile

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
)

// Ensure ManifestStore implements the interface.
var _ driven.ManifestStore = (*ManifestStore)(nil)

type manifestDoc struct {
	Silos map[string]*siloFiles `json:"silos"`
}

type siloFiles struct {
	Files map[string]domain.FileRecord `json:"files"`
}

// ManifestStore persists silo -> path -> FileRecord in manifest.json.
type ManifestStore struct {
	mu   sync.RWMutex
	path string
	doc  manifestDoc
}

// NewManifestStore loads the manifest at path, or starts empty if absent.
func NewManifestStore(path string) (*ManifestStore, error) {
	s := &ManifestStore{path: path}
	if err := readJSON(path, &s.doc); err != nil {
		return nil, err
	}
	if s.doc.Silos == nil {
		s.doc.Silos = make(map[string]*siloFiles)
	}
	return s, nil
}

// Path returns the manifest file path.
func (s *ManifestStore) Path() string {
	return s.path
}

// Lookup returns the record for path in silo.
func (s *ManifestStore) Lookup(_ context.Context, silo, path string) (*domain.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sf, ok := s.doc.Silos[silo]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec, ok := sf.Files[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec.Path = path
	rec.Silo = silo
	rec.ChunkIDs = append([]string(nil), rec.ChunkIDs...)
	return &rec, nil
}

// Upsert stores rec for path in silo and persists the manifest.
func (s *ManifestStore) Upsert(_ context.Context, silo, path string, rec domain.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, ok := s.doc.Silos[silo]
	if !ok {
		sf = &siloFiles{Files: make(map[string]domain.FileRecord)}
		s.doc.Silos[silo] = sf
	}
	prev, had := sf.Files[path]

	rec.ChunkIDs = append([]string(nil), rec.ChunkIDs...)
	if rec.ChunkIDs == nil {
		rec.ChunkIDs = []string{}
	}
	sf.Files[path] = rec
	if err := writeJSON(s.path, s.doc); err != nil {
		if had {
			sf.Files[path] = prev
		} else {
			delete(sf.Files, path)
		}
		return err
	}
	return nil
}

// Remove deletes the record for path in silo.
func (s *ManifestStore) Remove(_ context.Context, silo, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, ok := s.doc.Silos[silo]
	if !ok {
		return nil
	}
	prev, had := sf.Files[path]
	if !had {
		return nil
	}
	delete(sf.Files, path)
	if err := writeJSON(s.path, s.doc); err != nil {
		sf.Files[path] = prev
		return err
	}
	return nil
}

// List returns every record in silo sorted by path.
func (s *ManifestStore) List(_ context.Context, silo string) ([]domain.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sf, ok := s.doc.Silos[silo]
	if !ok {
		return nil, nil
	}
	out := make([]domain.FileRecord, 0, len(sf.Files))
	for path, rec := range sf.Files {
		rec.Path = path
		rec.Silo = silo
		rec.ChunkIDs = append([]string(nil), rec.ChunkIDs...)
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// DropSilo removes every record in silo.
func (s *ManifestStore) DropSilo(_ context.Context, silo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.doc.Silos[silo]
	if !ok {
		return nil
	}
	delete(s.doc.Silos, silo)
	if err := writeJSON(s.path, s.doc); err != nil {
		s.doc.Silos[silo] = prev
		return err
	}
	return nil
}
