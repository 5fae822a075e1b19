package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/llmli/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/llmli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/llmli/internal/config"
	"github.com/custodia-labs/llmli/internal/core/domain"
)

func hit(id, source string, distance float64) domain.Hit {
	return domain.Hit{ID: id, Document: id, Distance: distance, Metadata: domain.ChunkMetadata{Source: source}}
}

func ids(hits []domain.Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

type fakeReranker struct {
	scores map[string]float64
	err    error
	calls  int
}

func (f *fakeReranker) Score(_ context.Context, _ string, docs []string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(docs))
	for i, d := range docs {
		out[i] = f.scores[d]
	}
	return out, nil
}

func (f *fakeReranker) ModelName() string { return "fake" }

func TestRerank_EmptyInputUnchanged(t *testing.T) {
	r := &fakeReranker{}
	out, err := Rerank(context.Background(), r, "q", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, r.calls)

	empty := []domain.Hit{}
	out, err = Rerank(context.Background(), r, "q", empty)
	require.NoError(t, err)
	assert.Equal(t, empty, out)
}

func TestRerank_SortsByScore(t *testing.T) {
	r := &fakeReranker{scores: map[string]float64{"a": 0.1, "b": 0.9, "c": 0.5}}
	out, err := Rerank(context.Background(), r, "q", []domain.Hit{hit("a", "/1", 0), hit("b", "/2", 0), hit("c", "/3", 0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, ids(out))
	assert.Equal(t, 0.9, out[0].Score)
}

func TestRerank_ErrorKeepsOrder(t *testing.T) {
	r := &fakeReranker{err: errors.New("down")}
	in := []domain.Hit{hit("a", "/1", 0), hit("b", "/2", 0)}
	out, err := Rerank(context.Background(), r, "q", in)
	assert.Error(t, err)
	assert.Equal(t, in, out)
}

func TestFilterDistance(t *testing.T) {
	hits := []domain.Hit{hit("a", "/1", 0.5), hit("b", "/2", 1.9), hit("c", "/3", 2.5), hit("d", "/4", 3.0)}

	t.Run("drops far hits", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, ids(FilterDistance(hits, 2.0, 2)))
	})

	t.Run("floor keeps top hits", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b", "c"}, ids(FilterDistance(hits, 2.0, 3)))
	})

	t.Run("floor larger than input", func(t *testing.T) {
		assert.Len(t, FilterDistance(hits[2:], 2.0, 10), 2)
	})
}

func TestCapPerFile(t *testing.T) {
	hits := []domain.Hit{
		hit("a1", "/a", 0), hit("a2", "/a", 0), hit("b1", "/b", 0), hit("a3", "/a", 0),
	}
	assert.Equal(t, []string{"a1", "a2", "b1"}, ids(CapPerFile(hits, 2)))
	assert.Len(t, CapPerFile(hits, 0), 4)
}

func TestFuse(t *testing.T) {
	vector := []domain.Hit{hit("a", "/a", 0.2), hit("b", "/b", 0.4)}
	keyword := []domain.Hit{hit("b", "/b", 0), hit("c", "/c", 0)}

	out := Fuse(vector, keyword, RRFK, 2.0)
	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].ID, "present in both lists")
	assert.InDelta(t, 1.0/62+1.0/61, out[0].Score, 1e-12)
	assert.Equal(t, 0.4, out[0].Distance, "vector distance kept")

	var c domain.Hit
	for _, h := range out {
		if h.ID == "c" {
			c = h
		}
	}
	assert.Equal(t, 2.0, c.Distance)
}

func TestKeywordTerms(t *testing.T) {
	assert.Equal(t, []string{"total", "income", "2024"}, KeywordTerms("What was the total income in 2024? total"))
}

func newRetriever(t *testing.T, reranker *fakeReranker, mutate func(*Options)) (*Retriever, *memory.Collection) {
	t.Helper()
	coll := memory.NewCollection(hashing.NewEmbeddingService(256))
	opts := OptionsFromSettings(func() *config.Settings { s := config.Default(t.TempDir()); return &s }())
	opts.RerankTimeout = 0
	if mutate != nil {
		mutate(&opts)
	}
	var r *Retriever
	if reranker != nil {
		r = New(coll, reranker, opts)
	} else {
		r = New(coll, nil, opts)
	}
	return r, coll
}

func TestRetrieve_ScopesToSiloAndYear(t *testing.T) {
	ctx := context.Background()
	r, coll := newRetriever(t, nil, nil)
	require.NoError(t, coll.Add(ctx, []domain.Chunk{
		domain.NewChunk("tax", "/t/2024.txt", "line 9 total income 7,522", domain.ChunkMetadata{TaxYear: 2024}),
		domain.NewChunk("tax", "/t/2021.txt", "line 9 total income 99,999", domain.ChunkMetadata{TaxYear: 2021}),
		domain.NewChunk("other", "/o/x.txt", "total income other silo", domain.ChunkMetadata{}),
	}))

	res, err := r.Retrieve(ctx, Request{Query: "total income", K: 5, Where: domain.Where{Silo: "tax", TaxYear: 2024}})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "/t/2024.txt", res.Hits[0].Metadata.Source)
	assert.False(t, res.Reranked)
}

func TestRetrieve_HybridFusesKeywordHits(t *testing.T) {
	ctx := context.Background()
	r, coll := newRetriever(t, nil, nil)
	require.NoError(t, coll.Add(ctx, []domain.Chunk{
		domain.NewChunk("s", "/s/a.txt", "carmine restaurant ranking", domain.ChunkMetadata{}),
		domain.NewChunk("s", "/s/b.txt", "boathouse", domain.ChunkMetadata{}),
	}))

	res, err := r.Retrieve(ctx, Request{Query: "carmine", K: 2, Where: domain.Where{Silo: "s"}})
	require.NoError(t, err)
	assert.True(t, res.Hybrid)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "/s/a.txt", res.Hits[0].Metadata.Source)
}

func TestRetrieve_RerankFetchesStage1N(t *testing.T) {
	ctx := context.Background()
	rr := &fakeReranker{scores: map[string]float64{"zebra facts": 5}}
	r, coll := newRetriever(t, rr, func(o *Options) { o.Hybrid = false; o.Stage1N = 10 })
	require.NoError(t, coll.Add(ctx, []domain.Chunk{
		domain.NewChunk("s", "/s/a.txt", "alpha facts", domain.ChunkMetadata{}),
		domain.NewChunk("s", "/s/b.txt", "beta facts", domain.ChunkMetadata{}),
		domain.NewChunk("s", "/s/z.txt", "zebra facts", domain.ChunkMetadata{}),
	}))

	res, err := r.Retrieve(ctx, Request{Query: "alpha", K: 1, Where: domain.Where{Silo: "s"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.NStage1)
	assert.True(t, res.Reranked)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "zebra facts", res.Hits[0].Document)
}

func TestRetrieve_RerankFailureDegrades(t *testing.T) {
	ctx := context.Background()
	rr := &fakeReranker{err: domain.ErrRerankUnavailable}
	r, coll := newRetriever(t, rr, func(o *Options) { o.Hybrid = false })
	require.NoError(t, coll.Add(ctx, []domain.Chunk{
		domain.NewChunk("s", "/s/a.txt", "alpha", domain.ChunkMetadata{}),
	}))

	res, err := r.Retrieve(ctx, Request{Query: "alpha", K: 3, Where: domain.Where{Silo: "s"}})
	require.NoError(t, err)
	assert.False(t, res.Reranked)
	assert.Len(t, res.Hits, 1)
}

func TestRetrieve_RerankDisabled(t *testing.T) {
	rr := &fakeReranker{}
	r, _ := newRetriever(t, rr, func(o *Options) { o.Rerank = false })
	assert.False(t, r.RerankActive())
}
