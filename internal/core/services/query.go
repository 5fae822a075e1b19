package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/llmli/internal/composer"
	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
	"github.com/custodia-labs/llmli/internal/core/ports/driving"
	"github.com/custodia-labs/llmli/internal/guardrails"
	"github.com/custodia-labs/llmli/internal/logger"
	"github.com/custodia-labs/llmli/internal/retrieval"
	"github.com/custodia-labs/llmli/internal/router"
	"github.com/custodia-labs/llmli/internal/trace"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryOptions holds the query tunables.
type QueryOptions struct {
	DefaultK  int
	Retrieval retrieval.Options
}

// QueryService runs the ask pipeline: route, guardrails, retrieval,
// composition and trace.
type QueryService struct {
	coll       driven.Collection
	silos      *SiloService
	router     *router.Router
	guardrails *guardrails.Chain
	reranker   driven.Reranker
	composer   *composer.Composer
	trace      *trace.Sink
	opts       QueryOptions
	now        func() time.Time
}

// NewQueryService creates a query service. rails, reranker and sink may be nil.
func NewQueryService(
	coll driven.Collection,
	silos *SiloService,
	rails *guardrails.Chain,
	reranker driven.Reranker,
	comp *composer.Composer,
	sink *trace.Sink,
	opts QueryOptions,
) *QueryService {
	if opts.DefaultK <= 0 {
		opts.DefaultK = 8
	}
	return &QueryService{
		coll:       coll,
		silos:      silos,
		router:     router.New(),
		guardrails: rails,
		reranker:   reranker,
		composer:   comp,
		trace:      sink,
		opts:       opts,
		now:        time.Now,
	}
}

// Ask answers req.Query against one silo or the whole library.
func (s *QueryService) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	start := s.now()
	logger.Section("Ask")
	logger.Debug("Query: %q", req.Query)

	scope, label, err := s.scope(ctx, req.Silo)
	if err != nil {
		return nil, err
	}

	n := req.N
	if n <= 0 {
		n = s.opts.DefaultK
	}
	route := s.router.Route(req.Query, n)
	logger.Debug("Intent %s, k=%d, expanded %q", route.Intent, route.K, route.Expanded)

	rec := trace.Record{
		Intent:      route.Intent,
		Model:       s.composer.ModelName(),
		Silo:        whereOf(scope).Silo,
		SourceLabel: label,
		QueryLen:    len(req.Query),
	}

	if ans, ok := s.guardrails.Answer(ctx, guardrails.Request{
		Query:  route.Query,
		Intent: route.Intent,
		Silos:  scope,
	}); ok {
		out := s.composer.Finish(*ans, guardrails.Label(*ans))
		rec.Guardrail = out.GuardrailReason
		rec.NumDocs = len(out.Sources)
		rec.TimeMS = trace.Millis(s.now().Sub(start))
		s.trace.Write(rec)
		return &out, nil
	}

	where := whereOf(scope)
	if year, ok := router.TaxYear(route.Query); ok {
		where.TaxYear = year
	}

	opts := s.opts.Retrieval
	if req.NoRerank {
		opts.Rerank = false
	}
	res, err := retrieval.New(s.coll, s.reranker, opts).Retrieve(ctx, retrieval.Request{
		Query:  route.Query,
		Search: route.Expanded,
		K:      route.K,
		Where:  where,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	logger.Debug("Retrieved %d of %d stage-1 hits (hybrid=%t, reranked=%t)",
		len(res.Hits), res.NStage1, res.Hybrid, res.Reranked)

	ans := s.composer.Compose(ctx, route.Intent, route.Query, res.Hits)

	rec.NStage1 = res.NStage1
	rec.NResults = len(res.Hits)
	rec.Hybrid = res.Hybrid
	rec.NumDocs = len(ans.Sources)
	rec.Receipt = ans.Receipt
	rec.TimeMS = trace.Millis(s.now().Sub(start))
	s.trace.Write(rec)
	return &ans, nil
}

// scope resolves the silos a query runs against and the label traced for them.
func (s *QueryService) scope(ctx context.Context, name string) ([]domain.Silo, string, error) {
	if name != "" {
		silo, err := s.silos.Resolve(ctx, name)
		if err != nil {
			return nil, "", err
		}
		return []domain.Silo{*silo}, silo.Name, nil
	}
	all, err := s.silos.List(ctx)
	if err != nil {
		return nil, "", err
	}
	if len(all) == 0 {
		return nil, "", fmt.Errorf("nothing indexed yet, run add first: %w", domain.ErrNotFound)
	}
	if len(all) == 1 {
		return all, all[0].Name, nil
	}
	return all, "all", nil
}

func whereOf(scope []domain.Silo) domain.Where {
	return guardrails.Request{Silos: scope}.Where()
}

// pingTimeout bounds the LLM reachability check in Status.
const pingTimeout = 5 * time.Second

// Status counts the collection and pings the LLM. An unreachable LLM is
// reported, not returned as an error.
func (s *QueryService) Status(ctx context.Context) (*domain.Status, error) {
	n, err := s.coll.Count(ctx, domain.Where{})
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}

	st := &domain.Status{
		Chunks:   n,
		LLMModel: s.composer.ModelName(),
	}
	if _, ok := s.coll.(driven.KeywordSearcher); ok {
		st.Hybrid = s.opts.Retrieval.Hybrid
	}
	if s.reranker != nil && s.opts.Retrieval.Rerank {
		st.RerankModel = s.reranker.ModelName()
	}

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.composer.Ping(pctx); err != nil {
		st.LLMProblem = err.Error()
	} else {
		st.LLMReady = true
	}
	return st, nil
}
