// Package router classifies queries into intents, derives the effective
// result count per intent and expands queries with synonyms.
package router

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

// Result count bounds per intent.
const (
	KProfileMin   = 16
	KProfileMax   = 32
	KAggregateMin = 24
	KAggregateMax = 48
	KReflectMin   = 12
	KReflectMax   = 24
)

// Route is the routing decision for one query.
type Route struct {
	Intent   domain.Intent
	Query    string
	Expanded string
	K        int
}

// Router classifies and expands queries.
type Router struct {
	synonyms []Synonym
}

// Synonym is one expansion table entry.
type Synonym struct {
	Trigger  string   `yaml:"trigger"`
	Synonyms []string `yaml:"synonyms"`
}

//go:embed synonyms.yaml
var synonymsYAML []byte

// ParseSynonyms parses an expansion table document.
func ParseSynonyms(data []byte) ([]Synonym, error) {
	var out []Synonym
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse synonyms: %w", err)
	}
	for i := range out {
		out[i].Trigger = strings.ToLower(strings.TrimSpace(out[i].Trigger))
	}
	return out, nil
}

// New creates a router with the embedded synonym table.
func New() *Router {
	syn, err := ParseSynonyms(synonymsYAML)
	if err != nil {
		panic(err)
	}
	return &Router{synonyms: syn}
}

// NewWithSynonyms creates a router with a custom synonym table.
func NewWithSynonyms(syn []Synonym) *Router {
	return &Router{synonyms: syn}
}

// Route classifies query, derives the effective k from n and expands the query.
func (r *Router) Route(query string, n int) Route {
	intent := Classify(query)
	return Route{
		Intent:   intent,
		Query:    strings.TrimSpace(query),
		Expanded: r.Expand(query),
		K:        EffectiveK(intent, n),
	}
}

var (
	capabilityPhrases = []string{
		"what file types", "what kinds of files", "what kind of files", "what can you index",
		"what do you support", "which formats", "what formats", "supported formats", "which file types",
	}
	codeLanguagePhrases = []string{
		"most common programming language", "languages used", "what programming language",
		"which programming language", "most used language", "main programming language",
	}
	aggregatePhrases = []string{"list every", "list all", "how many", "what is the total", "sum of"}
	timelineWords    = []string{"timeline", "chronological", "sequence", "history", "evolution", "progression"}
	timelineAnchors  = []string{"events", "milestones", "changes", "updates"}

	evidenceProfile = regexp.MustCompile(
		`\bwhat (?:do|did) i (?:like|love|enjoy|prefer|hate|dislike)\b|\bmy favou?rite\b|` +
			`\bwhat (?:are|were) my (?:preferences|interests|hobbies|favou?rites)\b|\bwhat kind of .+ do i (?:like|enjoy|prefer)\b`)
	aggregateStart = regexp.MustCompile(`^total\b`)
	yearOrRange    = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// Classify returns the first matching intent; LOOKUP when nothing matches.
func Classify(query string) domain.Intent {
	q := strings.ToLower(strings.TrimSpace(query))
	switch {
	case q == "":
		return domain.IntentLookup
	case containsAny(q, capabilityPhrases):
		return domain.IntentCapabilities
	case containsAny(q, codeLanguagePhrases):
		return domain.IntentCodeLanguage
	case strings.Contains(q, "reflect on"):
		return domain.IntentReflect
	case evidenceProfile.MatchString(q):
		return domain.IntentEvidenceProfile
	case containsAny(q, aggregatePhrases) || aggregateStart.MatchString(q):
		return domain.IntentAggregate
	case containsAny(q, timelineWords) && (yearOrRange.MatchString(q) || containsAny(q, timelineAnchors)):
		return domain.IntentTimeline
	default:
		return domain.IntentLookup
	}
}

// EffectiveK clamps n into the intent's range. Other intents pass n through.
func EffectiveK(intent domain.Intent, n int) int {
	switch intent {
	case domain.IntentEvidenceProfile:
		return clamp(n, KProfileMin, KProfileMax)
	case domain.IntentAggregate:
		return clamp(n, KAggregateMin, KAggregateMax)
	case domain.IntentReflect:
		return clamp(n, KReflectMin, KReflectMax)
	default:
		return n
	}
}

// Expand appends the synonyms of every trigger in query, in the order the
// triggers appear. Synonyms already in the query are not repeated.
func (r *Router) Expand(query string) string {
	q := strings.ToLower(query)

	type hit struct {
		pos int
		syn []string
	}
	var hits []hit
	for _, s := range r.synonyms {
		if pos := wordIndex(q, s.Trigger); pos >= 0 {
			hits = append(hits, hit{pos: pos, syn: s.Synonyms})
		}
	}
	if len(hits) == 0 {
		return query
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := map[string]bool{}
	var extra []string
	for _, h := range hits {
		for _, s := range h.syn {
			s = strings.ToLower(s)
			if seen[s] || wordIndex(q, s) >= 0 {
				continue
			}
			seen[s] = true
			extra = append(extra, s)
		}
	}
	if len(extra) == 0 {
		return query
	}
	return strings.TrimSpace(query) + " " + strings.Join(extra, " ")
}

// wordIndex finds phrase in s on word boundaries.
func wordIndex(s, phrase string) int {
	if phrase == "" {
		return -1
	}
	from := 0
	for {
		i := strings.Index(s[from:], phrase)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(phrase)
		if (i == 0 || !isWordByte(s[i-1])) && (end == len(s) || !isWordByte(s[end])) {
			return i
		}
		from = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}

var taxTerms = regexp.MustCompile(`\btax(?:es)?\b|\b1040\b|\bw-?2\b|\brefund\b|\bagi\b`)

// TaxYear returns the year a tax question is scoped to. Queries that do not
// read as tax questions, or carry no year, return false.
func TaxYear(query string) (int, bool) {
	q := strings.ToLower(query)
	if !taxTerms.MatchString(q) {
		return 0, false
	}
	m := yearOrRange.FindString(q)
	if m == "" {
		return 0, false
	}
	var y int
	if _, err := fmt.Sscanf(m, "%d", &y); err != nil || y < 1990 || y > 2099 {
		return 0, false
	}
	return y, true
}
