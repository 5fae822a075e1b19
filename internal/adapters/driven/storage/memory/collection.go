// Package memory provides an in-memory vector collection. It backs tests
// and ephemeral runs; nothing is persisted.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/llmli/internal/adapters/driven/storage/vector"
	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
)

// Ensure Collection implements the interfaces.
var (
	_ driven.Collection      = (*Collection)(nil)
	_ driven.AtomicReplacer  = (*Collection)(nil)
	_ driven.KeywordSearcher = (*Collection)(nil)
)

type entry struct {
	chunk domain.Chunk
	vec   []float32
}

// Collection is an in-memory implementation of driven.Collection.
// It is safe for concurrent use.
type Collection struct {
	mu       sync.RWMutex
	embedder driven.EmbeddingService
	entries  map[string]entry
}

// NewCollection creates an empty collection that embeds with embedder.
func NewCollection(embedder driven.EmbeddingService) *Collection {
	return &Collection{
		embedder: embedder,
		entries:  make(map[string]entry),
	}
}

// Add embeds and stores chunks.
func (c *Collection) Add(ctx context.Context, chunks []domain.Chunk) error {
	entries, err := c.embed(ctx, chunks)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		c.entries[e.chunk.ID] = e
	}
	return nil
}

// Replace deletes deleteIDs and adds chunks under one lock.
func (c *Collection) Replace(ctx context.Context, deleteIDs []string, add []domain.Chunk) error {
	entries, err := c.embed(ctx, add)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range deleteIDs {
		delete(c.entries, id)
	}
	for _, e := range entries {
		c.entries[e.chunk.ID] = e
	}
	return nil
}

func (c *Collection) embed(ctx context.Context, chunks []domain.Chunk) ([]entry, error) {
	vecs, err := vector.EmbedChunks(ctx, c.embedder, chunks)
	if err != nil {
		return nil, err
	}
	out := make([]entry, len(chunks))
	for i, ch := range chunks {
		out[i] = entry{chunk: ch, vec: vecs[i]}
	}
	return out, nil
}

// Query returns the n nearest chunks matching where.
func (c *Collection) Query(ctx context.Context, text string, n int, where domain.Where) ([]domain.Hit, error) {
	if c.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	q, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var hits []domain.Hit
	for _, e := range c.entries {
		if !where.Matches(e.chunk.Metadata) {
			continue
		}
		h := toHit(e.chunk)
		h.Distance = vector.Distance(q, e.vec)
		hits = append(hits, h)
	}
	return vector.SortHits(hits, n), nil
}

// Get returns chunks by ID, or all chunks matching where.
func (c *Collection) Get(_ context.Context, ids []string, where domain.Where, limit int) ([]domain.Hit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var hits []domain.Hit
	if len(ids) > 0 {
		for _, id := range ids {
			if e, ok := c.entries[id]; ok && where.Matches(e.chunk.Metadata) {
				hits = append(hits, toHit(e.chunk))
			}
		}
	} else {
		for _, e := range c.entries {
			if where.Matches(e.chunk.Metadata) {
				hits = append(hits, toHit(e.chunk))
			}
		}
		sortByPosition(hits)
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Delete removes chunks by ID, or all chunks matching a non-empty where.
func (c *Collection) Delete(_ context.Context, ids []string, where domain.Where) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(ids) > 0 {
		for _, id := range ids {
			delete(c.entries, id)
		}
		return nil
	}
	if where.IsEmpty() {
		return nil
	}
	for id, e := range c.entries {
		if where.Matches(e.chunk.Metadata) {
			delete(c.entries, id)
		}
	}
	return nil
}

// Count returns the number of chunks matching where.
func (c *Collection) Count(_ context.Context, where domain.Where) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.entries {
		if where.Matches(e.chunk.Metadata) {
			n++
		}
	}
	return n, nil
}

// KeywordSearch ranks chunks by how often they contain terms.
func (c *Collection) KeywordSearch(_ context.Context, terms []string, n int, where domain.Where) ([]domain.Hit, error) {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}
	if len(lowered) == 0 {
		return nil, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var hits []domain.Hit
	for _, e := range c.entries {
		if !where.Matches(e.chunk.Metadata) {
			continue
		}
		doc := strings.ToLower(e.chunk.Document)
		score := 0
		for _, t := range lowered {
			score += strings.Count(doc, t)
		}
		if score > 0 {
			h := toHit(e.chunk)
			h.Score = float64(score)
			hits = append(hits, h)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if n > 0 && len(hits) > n {
		hits = hits[:n]
	}
	return hits, nil
}

// Close is a no-op.
func (c *Collection) Close() error {
	return nil
}

func toHit(ch domain.Chunk) domain.Hit {
	return domain.Hit{ID: ch.ID, Document: ch.Document, Metadata: ch.Metadata}
}

// sortByPosition orders hits by source, then position within the source.
func sortByPosition(hits []domain.Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i].Metadata, hits[j].Metadata
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.LineStart != b.LineStart {
			return a.LineStart < b.LineStart
		}
		return hits[i].ID < hits[j].ID
	})
}
