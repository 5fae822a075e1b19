// Package guardrails holds the deterministic answer paths that run before
// retrieval. A guardrail that recognises the query answers it straight from
// the collection or the manifest and the LLM is never called.
package guardrails

import (
	"context"

	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/logger"
)

// Guardrail reasons reported in answers and traces.
const (
	ReasonCSVRank      = "csv_rank_lookup"
	ReasonTaxField     = "tax_field_lookup"
	ReasonCodingCount  = "coding_project_count"
	ReasonCapabilities = "capabilities"
	ReasonCodeLanguage = "code_language"
)

// Request is what a guardrail inspects.
type Request struct {
	Query  string
	Intent domain.Intent

	// Silos is the query scope: one silo, or every registered silo.
	Silos []domain.Silo
}

// Where returns the collection filter for the request scope.
func (r Request) Where() domain.Where {
	if len(r.Silos) == 1 {
		return domain.Where{Silo: r.Silos[0].Slug}
	}
	return domain.Where{}
}

// Guardrail answers a recognised query deterministically. ok is false on a
// miss, which is not an error.
type Guardrail interface {
	Name() string
	Answer(ctx context.Context, req Request) (ans *domain.Answer, ok bool, err error)
}

// Chain runs guardrails in order and returns the first answer.
type Chain struct {
	rails []Guardrail
}

// NewChain creates a chain. Order matters: the first match wins.
func NewChain(rails ...Guardrail) *Chain {
	return &Chain{rails: rails}
}

// Answer returns the first guardrail answer. A failing guardrail is logged
// and treated as a miss.
func (c *Chain) Answer(ctx context.Context, req Request) (*domain.Answer, bool) {
	if c == nil {
		return nil, false
	}
	for _, g := range c.rails {
		ans, ok, err := g.Answer(ctx, req)
		if err != nil {
			logger.Warn("guardrail %s failed: %v", g.Name(), err)
			continue
		}
		if ok && ans != nil {
			ans.GuardrailReason = g.Name()
			if ans.Intent == "" {
				ans.Intent = req.Intent
			}
			logger.Debug("guardrail %s answered", g.Name())
			return ans, true
		}
	}
	return nil, false
}

// Label is the "Answered by:" label for a guardrail answer.
func Label(a domain.Answer) string {
	return a.Intent.Label() + " (" + a.GuardrailReason + ")"
}
