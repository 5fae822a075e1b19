package tax

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fields.yaml
var fieldsYAML []byte

// FormSpec lists the field codes of one form.
type FormSpec struct {
	Kind   string            `yaml:"kind"`
	Fields map[string]string `yaml:"fields"`
}

// Table is the closed field-code table.
type Table struct {
	Forms map[string]FormSpec `yaml:"forms"`
}

// ParseTable parses a field-code table document.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse field table: %w", err)
	}
	if len(t.Forms) == 0 {
		return nil, fmt.Errorf("field table has no forms")
	}
	return &t, nil
}

var defaultTable = mustTable()

func mustTable() *Table {
	t, err := ParseTable(fieldsYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultTable returns the embedded Form 1040 and W-2 table.
func DefaultTable() *Table {
	return defaultTable
}

// Label returns the label of form/code, or false when the code is not in the table.
func (t *Table) Label(form, code string) (string, bool) {
	spec, ok := t.Forms[form]
	if !ok {
		return "", false
	}
	label, ok := spec.Fields[strings.ToLower(code)]
	return label, ok
}

type labelEntry struct {
	form  string
	code  string
	label string
}

// minLabelLen keeps short labels such as "Tax" out of the layout heuristics.
const minLabelLen = 8

// labels returns every field label of forms, longest first so that
// "Total income" never shadows "Adjusted gross income".
func (t *Table) labels(forms []string) []labelEntry {
	var out []labelEntry
	for _, f := range forms {
		for code, label := range t.Forms[f].Fields {
			if len(label) < minLabelLen {
				continue
			}
			out = append(out, labelEntry{form: f, code: code, label: strings.ToLower(label)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].label) != len(out[j].label) {
			return len(out[i].label) > len(out[j].label)
		}
		if out[i].form != out[j].form {
			return out[i].form < out[j].form
		}
		return out[i].code < out[j].code
	})
	return out
}
