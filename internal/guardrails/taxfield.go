package guardrails

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
	"github.com/custodia-labs/llmli/internal/tax"
)

var (
	fieldQuery = regexp.MustCompile(`(?i)\b(line|box)\s+(\d{1,2}[a-z]?)\b`)
	w2Query    = regexp.MustCompile(`(?i)\bw-?2\b`)
	taxContext = regexp.MustCompile(`(?i)\btax|\b1040\b|\bw-?2\b|\bform\b`)
)

// NoCrossYear closes every tax answer that found nothing for the asked year.
const NoCrossYear = "I'm not inferring from other years."

// TaxField answers "line N" and "box N" questions for an explicit year from
// Tier A extractions only. It never looks at other years.
type TaxField struct {
	coll       driven.Collection
	extractors []tax.Extractor
}

// NewTaxField creates the tax field guardrail using the default extractors.
func NewTaxField(coll driven.Collection) *TaxField {
	return &TaxField{coll: coll, extractors: tax.DefaultExtractors()}
}

// Name returns ReasonTaxField.
func (g *TaxField) Name() string { return ReasonTaxField }

// Answer returns the literal Tier A value for the requested field, or a
// fixed refusal when the year has no matching value.
func (g *TaxField) Answer(ctx context.Context, req Request) (*domain.Answer, bool, error) {
	m := fieldQuery.FindStringSubmatch(req.Query)
	if m == nil {
		return nil, false, nil
	}
	year, ok := tax.FindYear(req.Query)
	if !ok {
		return nil, false, nil
	}
	kind, code := strings.ToLower(m[1]), strings.ToLower(m[2])
	form := domain.Form1040
	if kind == "box" || w2Query.MatchString(req.Query) {
		form, kind = domain.FormW2, "box"
	}
	if !taxContext.MatchString(req.Query) {
		return nil, false, nil
	}
	formLabel := "Form " + form
	if form == domain.FormW2 {
		formLabel = "Form W-2"
	}

	where := req.Where()
	where.TaxYear = year
	hits, err := g.coll.Get(ctx, nil, where, 0)
	if err != nil {
		return nil, false, fmt.Errorf("load %d tax documents: %w", year, err)
	}
	if len(hits) == 0 {
		return &domain.Answer{
			Body: fmt.Sprintf("I could not find any %d tax documents in this library. %s", year, NoCrossYear),
		}, true, nil
	}

	var (
		best    domain.TaxField
		bestHit domain.Hit
		found   bool
	)
	for _, h := range hits {
		fields := tax.ExtractAll(g.extractors, h.Document, tax.Hint{
			TaxYear: year,
			Source:  h.Metadata.Source,
			Mtime:   h.Metadata.Mtime,
		})
		for _, f := range fields {
			if f.Tier != domain.TierFormField || f.FormType != form || f.FieldCode != code {
				continue
			}
			if !found || tax.Better(f, best) {
				best, bestHit, found = f, h, true
			}
		}
	}

	if !found {
		return &domain.Answer{
			Body: fmt.Sprintf("I found %d tax documents, but I could not find %s %s %s in extractable text. %s",
				year, formLabel, kind, code, NoCrossYear),
			Sources: sourcesOf(hits, 3),
		}, true, nil
	}

	return &domain.Answer{
		Body: fmt.Sprintf("%s %s %s (%d): %s", formLabel, kind, code, year, best.RawValue),
		Sources: []domain.SourceRef{{
			Path:     bestHit.Metadata.Source,
			Location: bestHit.Metadata.Location(),
			Snippet:  bestHit.Document,
		}},
	}, true, nil
}

// sourcesOf lists up to limit distinct sources of hits.
func sourcesOf(hits []domain.Hit, limit int) []domain.SourceRef {
	seen := make(map[string]bool)
	var out []domain.SourceRef
	for _, h := range hits {
		if seen[h.Metadata.Source] {
			continue
		}
		seen[h.Metadata.Source] = true
		out = append(out, domain.SourceRef{
			Path:     h.Metadata.Source,
			Location: h.Metadata.Location(),
			Snippet:  h.Document,
		})
		if len(out) == limit {
			break
		}
	}
	return out
}
