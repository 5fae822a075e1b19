package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/llmli/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/llmli/internal/core/domain"
)

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	return NewCollection(hashing.NewEmbeddingService(128))
}

func chunk(silo, source, text string, line int) domain.Chunk {
	return domain.NewChunk(silo, source, text, domain.ChunkMetadata{LineStart: line})
}

func TestCollection_AddAndQuery(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	require.NoError(t, c.Add(ctx, []domain.Chunk{
		chunk("a", "/a/tax.txt", "total income 84500", 1),
		chunk("a", "/a/food.txt", "banana bread recipe", 1),
	}))

	hits, err := c.Query(ctx, "income", 1, domain.Where{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "/a/tax.txt", hits[0].Metadata.Source)
	assert.Less(t, hits[0].Distance, 2.0)
}

func TestCollection_QueryWhereSilo(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)
	require.NoError(t, c.Add(ctx, []domain.Chunk{
		chunk("a", "/a/x.txt", "income", 1),
		chunk("b", "/b/x.txt", "income", 1),
	}))

	hits, err := c.Query(ctx, "income", 10, domain.Where{Silo: "b"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].Metadata.Silo)
}

func TestCollection_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)
	ch := chunk("a", "/a/x.txt", "hello world", 1)

	require.NoError(t, c.Add(ctx, []domain.Chunk{ch}))
	require.NoError(t, c.Add(ctx, []domain.Chunk{ch}))

	n, err := c.Count(ctx, domain.Where{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollection_GetOrdersByPosition(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)
	require.NoError(t, c.Add(ctx, []domain.Chunk{
		chunk("a", "/a/x.txt", "third", 30),
		chunk("a", "/a/x.txt", "first", 1),
		chunk("a", "/a/x.txt", "second", 12),
	}))

	hits, err := c.Get(ctx, nil, domain.Where{Source: "/a/x.txt"}, 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "first", hits[0].Document)
	assert.Equal(t, "second", hits[1].Document)
	assert.Equal(t, "third", hits[2].Document)

	limited, err := c.Get(ctx, nil, domain.Where{}, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestCollection_GetByIDs(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)
	ch := chunk("a", "/a/x.txt", "hello", 1)
	require.NoError(t, c.Add(ctx, []domain.Chunk{ch}))

	hits, err := c.Get(ctx, []string{ch.ID, "missing"}, domain.Where{}, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, ch.ID, hits[0].ID)
}

func TestCollection_Delete(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)
	a := chunk("a", "/a/x.txt", "one", 1)
	b := chunk("b", "/b/x.txt", "two", 1)
	require.NoError(t, c.Add(ctx, []domain.Chunk{a, b}))

	t.Run("empty filter is a no-op", func(t *testing.T) {
		require.NoError(t, c.Delete(ctx, nil, domain.Where{}))
		n, _ := c.Count(ctx, domain.Where{})
		assert.Equal(t, 2, n)
	})

	t.Run("by where", func(t *testing.T) {
		require.NoError(t, c.Delete(ctx, nil, domain.Where{Silo: "a"}))
		n, _ := c.Count(ctx, domain.Where{})
		assert.Equal(t, 1, n)
	})

	t.Run("by id", func(t *testing.T) {
		require.NoError(t, c.Delete(ctx, []string{b.ID}, domain.Where{}))
		n, _ := c.Count(ctx, domain.Where{})
		assert.Equal(t, 0, n)
	})
}

func TestCollection_Replace(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)
	old := chunk("a", "/a/x.txt", "old text", 1)
	require.NoError(t, c.Add(ctx, []domain.Chunk{old}))

	fresh := chunk("a", "/a/x.txt", "new text", 1)
	require.NoError(t, c.Replace(ctx, []string{old.ID}, []domain.Chunk{fresh}))

	hits, err := c.Get(ctx, nil, domain.Where{Source: "/a/x.txt"}, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new text", hits[0].Document)
}

type failingEmbedder struct{ *hashing.EmbeddingService }

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("boom")
}

func TestCollection_ReplaceKeepsOldOnEmbedFailure(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)
	old := chunk("a", "/a/x.txt", "old text", 1)
	require.NoError(t, c.Add(ctx, []domain.Chunk{old}))

	c.embedder = failingEmbedder{hashing.NewEmbeddingService(8)}
	err := c.Replace(ctx, []string{old.ID}, []domain.Chunk{chunk("a", "/a/x.txt", "new", 1)})
	require.Error(t, err)

	n, _ := c.Count(ctx, domain.Where{})
	assert.Equal(t, 1, n)
}

func TestCollection_KeywordSearch(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)
	require.NoError(t, c.Add(ctx, []domain.Chunk{
		chunk("a", "/a/1.txt", "Wages wages and more WAGES", 1),
		chunk("a", "/a/2.txt", "wages once", 1),
		chunk("a", "/a/3.txt", "nothing here", 1),
	}))

	hits, err := c.KeywordSearch(ctx, []string{"wages"}, 10, domain.Where{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "/a/1.txt", hits[0].Metadata.Source)
	assert.Equal(t, 3.0, hits[0].Score)

	none, err := c.KeywordSearch(ctx, []string{"  "}, 10, domain.Where{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCollection_NoEmbedder(t *testing.T) {
	c := NewCollection(nil)
	_, err := c.Query(context.Background(), "x", 1, domain.Where{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.NoError(t, c.Close())
}
