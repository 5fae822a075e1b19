// Package tax extracts year-scoped Form 1040 and W-2 values from document
// text in three tiers: form-field regexes, layout heuristics and layout
// heuristics over OCR-corrected text.
package tax

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

// Tier confidences.
const (
	FormFieldConfidence = 0.99
	LayoutConfidence    = 0.85
	OCRLayoutConfidence = 0.74
)

// Hint carries what is known about the document outside its text.
type Hint struct {
	TaxYear int
	Source  string
	Mtime   int64
}

// Extractor is one tier of the extractor.
type Extractor interface {
	Tier() domain.Tier
	Extract(text string, hint Hint) []domain.TaxField
}

const money = `(\(?-?\$?\s*\d[\d,]*(?:\.\d*)?\)?)`

var (
	lineField = regexp.MustCompile(`(?im)\bline\s+(\d{1,2}[a-z]?)\s*[:\-]\s*\$?\s*` + money)
	boxField  = regexp.MustCompile(`(?im)\bbox\s+(\d{1,2}[a-z]?)(?:\s+of\s+w-?2)?\s*[:\-]?\s*\$?\s*` + money)
	moneyOnly = regexp.MustCompile(`(?:^|\s|\$)` + `(\(?-?\d{1,3}(?:,\d{3})+(?:\.\d*)?\)?|\(?-?\d+\.\d{2}\)?|\(?-?\d+\.\)?)` + `(?:\s|$)`)
)

// FormField is Tier A: direct "line N: value" and "box N: value" labels.
type FormField struct {
	table *Table
}

// NewFormField creates a Tier A extractor over table.
func NewFormField(table *Table) *FormField {
	return &FormField{table: table}
}

// Tier returns domain.TierFormField.
func (e *FormField) Tier() domain.Tier { return domain.TierFormField }

// Extract returns every labelled value whose code is in the table.
func (e *FormField) Extract(text string, hint Hint) []domain.TaxField {
	var out []domain.TaxField
	for _, spec := range []struct {
		form string
		re   *regexp.Regexp
	}{
		{domain.Form1040, lineField},
		{domain.FormW2, boxField},
	} {
		for _, m := range spec.re.FindAllStringSubmatch(text, -1) {
			if f, ok := e.field(spec.form, m[1], m[2], hint); ok {
				out = append(out, f)
			}
		}
	}
	return out
}

func (e *FormField) field(form, code, raw string, hint Hint) (domain.TaxField, bool) {
	return newField(e.table, form, code, raw, FormFieldConfidence, domain.TierFormField, hint)
}

func newField(t *Table, form, code, raw string, conf float64, tier domain.Tier, hint Hint) (domain.TaxField, bool) {
	code = strings.ToLower(code)
	label, ok := t.Label(form, code)
	if !ok {
		return domain.TaxField{}, false
	}
	raw = strings.TrimSpace(raw)
	norm, ok := Normalize(raw)
	if !ok {
		return domain.TaxField{}, false
	}
	return domain.TaxField{
		FormType:          form,
		FieldCode:         code,
		FieldLabel:        label,
		RawValue:          raw,
		NormalizedDecimal: norm,
		Confidence:        conf,
		Tier:              tier,
		TaxYear:           hint.TaxYear,
		Source:            hint.Source,
		Mtime:             hint.Mtime,
	}, true
}

// Layout is Tier B: a known field label with a money value on the same
// line, or a bare label line next to a bare value line.
type Layout struct {
	table      *Table
	tier       domain.Tier
	confidence float64
}

// NewLayout creates a Tier B extractor over table.
func NewLayout(table *Table) *Layout {
	return &Layout{table: table, tier: domain.TierLayout, confidence: LayoutConfidence}
}

// Tier returns the configured tier.
func (e *Layout) Tier() domain.Tier { return e.tier }

// Extract scans layout-preserved text line by line.
func (e *Layout) Extract(text string, hint Hint) []domain.TaxField {
	forms := DetectForms(text)
	if len(forms) == 0 {
		return nil
	}
	labels := e.table.labels(forms)
	lines := strings.Split(text, "\n")

	var out []domain.TaxField
	for i, line := range lines {
		lower := strings.ToLower(line)
		if len(lower) != len(line) {
			line = lower
		}
		for _, l := range labels {
			idx := strings.Index(lower, l.label)
			if idx < 0 {
				continue
			}
			// value after the label on the same line, then before it
			raw := lastMoney(line[idx+len(l.label):])
			if raw == "" {
				raw = lastMoney(line[:idx])
			}
			if raw == "" && strings.TrimSpace(lower[idx+len(l.label):]) == "" {
				raw = adjacentValue(lines, i)
			}
			if raw == "" {
				continue
			}
			if f, ok := newField(e.table, l.form, l.code, raw, e.confidence, e.tier, hint); ok {
				out = append(out, f)
			}
			break
		}
	}
	return out
}

// adjacentValue returns the value of a neighbouring line that holds only a value.
func adjacentValue(lines []string, i int) string {
	for _, j := range []int{i + 1, i - 1} {
		if j < 0 || j >= len(lines) {
			continue
		}
		cand := strings.TrimSpace(lines[j])
		if cand == "" {
			continue
		}
		if raw := lastMoney(cand); raw != "" && strings.TrimSpace(strings.Replace(cand, raw, "", 1)) == "" {
			return raw
		}
	}
	return ""
}

func lastMoney(s string) string {
	ms := moneyOnly.FindAllStringSubmatch(s, -1)
	if len(ms) == 0 {
		return ""
	}
	return ms[len(ms)-1][1]
}

var ocrFixes = strings.NewReplacer(
	"iox", "box", "Iox", "Box", "IOX", "BOX",
	"rax", "tax", "Rax", "Tax", "RAX", "TAX",
	"federa1", "federal", "Federa1", "Federal", "FEDERA1", "FEDERAL",
	"medlcare", "medicare", "Medlcare", "Medicare", "MEDLCARE", "MEDICARE",
)

// CorrectOCR applies the known OCR misreadings.
func CorrectOCR(text string) string {
	return ocrFixes.Replace(text)
}

// OCRLayout is Tier C: Tier B over OCR-corrected text. It stays silent on
// text the corrections do not change, which Tier B already covers.
type OCRLayout struct {
	layout *Layout
}

// NewOCRLayout creates a Tier C extractor over table.
func NewOCRLayout(table *Table) *OCRLayout {
	return &OCRLayout{layout: &Layout{table: table, tier: domain.TierOCRLayout, confidence: OCRLayoutConfidence}}
}

// Tier returns domain.TierOCRLayout.
func (e *OCRLayout) Tier() domain.Tier { return domain.TierOCRLayout }

// Extract corrects text, then runs the layout heuristics.
func (e *OCRLayout) Extract(text string, hint Hint) []domain.TaxField {
	fixed := CorrectOCR(text)
	if fixed == text {
		return nil
	}
	return e.layout.Extract(fixed, hint)
}

var (
	form1040Marker = regexp.MustCompile(`(?i)\b(?:form\s+)?1040\b`)
	formW2Marker   = regexp.MustCompile(`(?i)\bw-?2\b|wage and tax statement`)
)

// DetectForms returns the forms a text mentions.
func DetectForms(text string) []string {
	var forms []string
	if form1040Marker.MatchString(text) {
		forms = append(forms, domain.Form1040)
	}
	if formW2Marker.MatchString(text) {
		forms = append(forms, domain.FormW2)
	}
	return forms
}

// LooksLikeTax reports whether a document should be tagged with a tax year.
func LooksLikeTax(path, text string) bool {
	if strings.Contains(strings.ToLower(path), "tax") {
		return true
	}
	return len(DetectForms(text)) > 0
}

// DefaultExtractors returns the three tiers over the embedded table.
func DefaultExtractors() []Extractor {
	t := DefaultTable()
	return []Extractor{NewFormField(t), NewLayout(t), NewOCRLayout(t)}
}

// ExtractAll runs every extractor and merges the results.
func ExtractAll(extractors []Extractor, text string, hint Hint) []domain.TaxField {
	var all []domain.TaxField
	for _, e := range extractors {
		all = append(all, e.Extract(text, hint)...)
	}
	return Merge(all)
}

// Merge keeps one field per (form, field_code, normalized_decimal),
// preferring higher tier, then higher confidence, then the newest mtime.
// The result is sorted by form, code and value.
func Merge(fields []domain.TaxField) []domain.TaxField {
	type key struct{ form, code, value string }
	best := map[key]domain.TaxField{}
	var order []key
	for _, f := range fields {
		k := key{f.FormType, f.FieldCode, f.NormalizedDecimal}
		cur, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = f
			continue
		}
		if Better(f, cur) {
			best[k] = f
		}
	}

	out := make([]domain.TaxField, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.FormType != b.FormType {
			return a.FormType < b.FormType
		}
		if a.FieldCode != b.FieldCode {
			return codeLess(a.FieldCode, b.FieldCode)
		}
		return a.NormalizedDecimal < b.NormalizedDecimal
	})
	return out
}

// Better reports whether a should replace b.
func Better(a, b domain.TaxField) bool {
	if a.Tier.Rank() != b.Tier.Rank() {
		return a.Tier.Rank() > b.Tier.Rank()
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Mtime != b.Mtime {
		return a.Mtime > b.Mtime
	}
	return a.Source < b.Source
}

// codeLess orders "2a" < "9" < "11" < "11b".
func codeLess(a, b string) bool {
	na, sa := splitCode(a)
	nb, sb := splitCode(b)
	if na != nb {
		return na < nb
	}
	return sa < sb
}

func splitCode(c string) (int, string) {
	n, i := 0, 0
	for i < len(c) && c[i] >= '0' && c[i] <= '9' {
		n = n*10 + int(c[i]-'0')
		i++
	}
	return n, c[i:]
}
