// Package retrieval runs stage-1 vector retrieval with an optional keyword
// pass, cross-encoder reranking and relevance post-filtering.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/custodia-labs/llmli/internal/config"
	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
	"github.com/custodia-labs/llmli/internal/logger"
)

// RRFK is the Reciprocal Rank Fusion constant.
const RRFK = 60

// Options holds the retrieval tunables.
type Options struct {
	Stage1N          int
	MaxDistance      float64
	RelevanceFloor   int
	MaxChunksPerFile int
	FilterStage      string
	Hybrid           bool
	Rerank           bool
	RerankTimeout    time.Duration
}

// OptionsFromSettings maps Settings onto retrieval options.
func OptionsFromSettings(s *config.Settings) Options {
	return Options{
		Stage1N:          s.Retrieval.Stage1N,
		MaxDistance:      s.Retrieval.MaxDistance,
		RelevanceFloor:   s.Retrieval.RelevanceFloor,
		MaxChunksPerFile: s.Retrieval.MaxChunksPerFile,
		FilterStage:      s.Retrieval.DistanceFilterStage,
		Hybrid:           s.Retrieval.Hybrid,
		Rerank:           s.Rerank.Enabled,
		RerankTimeout:    s.RerankTimeout(),
	}
}

// Request is one retrieval call.
type Request struct {
	// Query is the user's text, used for reranking.
	Query string

	// Search is the expanded text used for stage-1 retrieval.
	// Empty means Query.
	Search string

	// K is the effective number of results to return.
	K int

	Where domain.Where
}

// Result is the outcome of Retrieve.
type Result struct {
	Hits []domain.Hit

	// NStage1 is the number of candidates before rerank and filtering.
	NStage1 int

	// Hybrid is true when keyword hits were fused in.
	Hybrid bool

	// Reranked is true when the cross-encoder ordering was applied.
	Reranked bool
}

// Retriever retrieves chunks for a query.
type Retriever struct {
	coll     driven.Collection
	reranker driven.Reranker
	opts     Options
}

// New creates a retriever. reranker may be nil.
func New(coll driven.Collection, reranker driven.Reranker, opts Options) *Retriever {
	return &Retriever{coll: coll, reranker: reranker, opts: opts}
}

// RerankActive reports whether a cross-encoder will be consulted.
func (r *Retriever) RerankActive() bool {
	return r.opts.Rerank && r.reranker != nil
}

// Retrieve runs stage-1, optional hybrid fusion, rerank and post-filters.
func (r *Retriever) Retrieve(ctx context.Context, req Request) (Result, error) {
	if req.K <= 0 {
		req.K = 1
	}
	search := req.Search
	if search == "" {
		search = req.Query
	}

	n := req.K
	if r.RerankActive() {
		n = max(r.opts.Stage1N, req.K)
	}

	hits, hybrid, err := r.stage1(ctx, search, n, req.Where)
	if err != nil {
		return Result{}, err
	}
	res := Result{NStage1: len(hits), Hybrid: hybrid}

	if r.opts.FilterStage == config.FilterBeforeRerank {
		hits = FilterDistance(hits, r.opts.MaxDistance, r.opts.RelevanceFloor)
	}
	if r.RerankActive() {
		hits, res.Reranked = r.rerank(ctx, req.Query, hits)
	}
	if r.opts.FilterStage != config.FilterBeforeRerank {
		hits = FilterDistance(hits, r.opts.MaxDistance, r.opts.RelevanceFloor)
	}
	hits = CapPerFile(hits, r.opts.MaxChunksPerFile)
	if len(hits) > req.K {
		hits = hits[:req.K]
	}
	res.Hits = hits
	return res, nil
}

func (r *Retriever) stage1(ctx context.Context, text string, n int, where domain.Where) ([]domain.Hit, bool, error) {
	ks, ok := r.coll.(driven.KeywordSearcher)
	terms := KeywordTerms(text)
	if !r.opts.Hybrid || !ok || len(terms) == 0 {
		hits, err := r.coll.Query(ctx, text, n, where)
		if err != nil {
			return nil, false, fmt.Errorf("stage-1 query: %w", err)
		}
		return hits, false, nil
	}

	var (
		vectorHits, keywordHits []domain.Hit
		vectorErr, keywordErr   error
		wg                      sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorHits, vectorErr = r.coll.Query(ctx, text, n, where)
	}()
	go func() {
		defer wg.Done()
		keywordHits, keywordErr = ks.KeywordSearch(ctx, terms, n, where)
	}()
	wg.Wait()

	switch {
	case vectorErr != nil:
		return nil, false, fmt.Errorf("stage-1 query: %w", vectorErr)
	case keywordErr != nil:
		logger.Warn("Keyword search failed, using vector results only: %v", keywordErr)
		return vectorHits, false, nil
	case len(keywordHits) == 0:
		return vectorHits, false, nil
	}

	logger.Debug("Hybrid: merging %d vector + %d keyword hits with RRF", len(vectorHits), len(keywordHits))
	fused := Fuse(vectorHits, keywordHits, RRFK, r.opts.MaxDistance)
	if len(fused) > n {
		fused = fused[:n]
	}
	return fused, true, nil
}

func (r *Retriever) rerank(ctx context.Context, query string, hits []domain.Hit) ([]domain.Hit, bool) {
	if len(hits) == 0 {
		return hits, false
	}
	if r.opts.RerankTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.RerankTimeout)
		defer cancel()
	}
	out, err := Rerank(ctx, r.reranker, query, hits)
	if err != nil {
		logger.Debug("Rerank skipped: %v", err)
		return hits, false
	}
	return out, true
}

// Rerank scores hits with reranker and returns them sorted by descending
// score. Empty input is returned unchanged. On error the input order is kept.
func Rerank(ctx context.Context, reranker driven.Reranker, query string, hits []domain.Hit) ([]domain.Hit, error) {
	if len(hits) == 0 || reranker == nil {
		return hits, nil
	}
	docs := make([]string, len(hits))
	for i, h := range hits {
		docs[i] = h.Document
	}
	scores, err := reranker.Score(ctx, query, docs)
	if err != nil {
		return hits, err
	}
	if len(scores) != len(hits) {
		return hits, fmt.Errorf("%w: got %d scores for %d documents", domain.ErrRerankUnavailable, len(scores), len(hits))
	}

	out := make([]domain.Hit, len(hits))
	copy(out, hits)
	for i := range out {
		out[i].Score = scores[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// Fuse merges vector and keyword rankings with Reciprocal Rank Fusion.
// Keyword-only hits have no measured distance and are given maxDistance so
// the relevance filter keeps them.
func Fuse(vectorHits, keywordHits []domain.Hit, k int, maxDistance float64) []domain.Hit {
	scores := make(map[string]float64)
	byID := make(map[string]domain.Hit)

	for rank, h := range vectorHits {
		scores[h.ID] += 1.0 / float64(k+rank+1)
		byID[h.ID] = h
	}
	for rank, h := range keywordHits {
		scores[h.ID] += 1.0 / float64(k+rank+1)
		if _, ok := byID[h.ID]; !ok {
			h.Distance = maxDistance
			byID[h.ID] = h
		}
	}

	out := make([]domain.Hit, 0, len(byID))
	for id, h := range byID {
		h.Score = scores[id]
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FilterDistance drops hits farther than maxDistance, unless fewer than
// floor would remain; then the first floor hits are kept as ranked.
func FilterDistance(hits []domain.Hit, maxDistance float64, floor int) []domain.Hit {
	kept := make([]domain.Hit, 0, len(hits))
	for _, h := range hits {
		if h.Distance <= maxDistance {
			kept = append(kept, h)
		}
	}
	if len(kept) >= floor || len(kept) == len(hits) {
		return kept
	}
	return hits[:min(floor, len(hits))]
}

// CapPerFile keeps at most limit hits per source, preserving order.
func CapPerFile(hits []domain.Hit, limit int) []domain.Hit {
	if limit <= 0 {
		return hits
	}
	counts := make(map[string]int)
	out := make([]domain.Hit, 0, len(hits))
	for _, h := range hits {
		if counts[h.Metadata.Source] >= limit {
			continue
		}
		counts[h.Metadata.Source]++
		out = append(out, h)
	}
	return out
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "what": true, "was": true, "were": true,
	"are": true, "how": true, "who": true, "when": true, "where": true, "which": true,
	"did": true, "does": true, "have": true, "has": true, "had": true, "this": true,
	"that": true, "with": true, "from": true, "about": true, "into": true, "your": true,
	"any": true, "all": true, "can": true, "you": true, "tell": true, "show": true,
	"list": true, "find": true, "give": true, "there": true, "their": true, "them": true,
}

// KeywordTerms picks the distinctive words of text for keyword search:
// three or more characters, not a stopword, deduplicated in order.
func KeywordTerms(text string) []string {
	seen := make(map[string]bool)
	var out []string
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range words {
		if len(tok) < 3 || stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}
