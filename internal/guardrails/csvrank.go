package guardrails

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
	"github.com/custodia-labs/llmli/internal/tax"
)

var rankQuery = regexp.MustCompile(`(?i)\brank(?:ed)?\s*(?:number|no\.?|#)?\s*(\d+)\b`)

// nameHeaders are tried in order to pick the value reported for a rank.
var nameHeaders = []string{"restaurant", "name", "title", "place"}

// CSVRank answers "what was ranked number N [in YEAR]" from CSV row chunks.
type CSVRank struct {
	coll driven.Collection
}

// NewCSVRank creates the CSV rank guardrail.
func NewCSVRank(coll driven.Collection) *CSVRank {
	return &CSVRank{coll: coll}
}

// Name returns ReasonCSVRank.
func (g *CSVRank) Name() string { return ReasonCSVRank }

// Answer scans CSV rows for Rank=<N>, limited to sources whose path contains
// the query year when one is given.
func (g *CSVRank) Answer(ctx context.Context, req Request) (*domain.Answer, bool, error) {
	m := rankQuery.FindStringSubmatch(req.Query)
	if m == nil {
		return nil, false, nil
	}
	rank, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, false, nil
	}
	year, hasYear := tax.FindYear(rankQuery.ReplaceAllString(req.Query, " "))

	hits, err := g.coll.Get(ctx, nil, req.Where(), 0)
	if err != nil {
		return nil, false, fmt.Errorf("scan rows: %w", err)
	}

	for _, h := range hits {
		if hasYear && !strings.Contains(h.Metadata.Source, strconv.Itoa(year)) {
			continue
		}
		fields, ok := ParseCSVRow(h.Document)
		if !ok || !rankMatches(fields, rank) {
			continue
		}
		name := rowName(fields)
		if name == "" {
			continue
		}
		return &domain.Answer{
			Body: fmt.Sprintf("Rank %d: %s", rank, name),
			Sources: []domain.SourceRef{{
				Path:     h.Metadata.Source,
				Location: h.Metadata.Location(),
				Snippet:  h.Document,
			}},
		}, true, nil
	}
	return nil, false, nil
}

// CSVField is one header=value pair of a CSV row chunk.
type CSVField struct {
	Header string
	Value  string
}

// ParseCSVRow splits "CSV row N: H1=V1 | H2=V2" into its fields.
func ParseCSVRow(doc string) ([]CSVField, bool) {
	if !strings.HasPrefix(doc, "CSV row ") {
		return nil, false
	}
	_, body, ok := strings.Cut(doc, ": ")
	if !ok {
		return nil, false
	}
	var out []CSVField
	for _, pair := range strings.Split(body, " | ") {
		h, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		out = append(out, CSVField{Header: strings.TrimSpace(h), Value: strings.TrimSpace(v)})
	}
	return out, len(out) > 0
}

func rankMatches(fields []CSVField, rank int) bool {
	for _, f := range fields {
		if !strings.EqualFold(f.Header, "rank") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(f.Value, "#"), "."))
		return err == nil && n == rank
	}
	return false
}

func rowName(fields []CSVField) string {
	for _, want := range nameHeaders {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f.Header), want) {
				return f.Value
			}
		}
	}
	for _, f := range fields {
		if !strings.EqualFold(f.Header, "rank") {
			return f.Value
		}
	}
	return ""
}
