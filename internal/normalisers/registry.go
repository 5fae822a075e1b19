package normalisers

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/llmli/internal/core/ports/driven"
	"github.com/custodia-labs/llmli/internal/normalisers/docx"
	"github.com/custodia-labs/llmli/internal/normalisers/html"
	"github.com/custodia-labs/llmli/internal/normalisers/markdown"
)

// Registry selects a normaliser by file extension, then by MIME type.
type Registry struct {
	normalisers []driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(ns ...driven.Normaliser) *Registry {
	r := &Registry{}
	for _, n := range ns {
		r.Register(n)
	}
	return r
}

// Default returns a registry with the Markdown, HTML and DOCX normalisers.
func Default() *Registry {
	return NewRegistry(markdown.New(), html.New(), docx.New())
}

// Register adds a normaliser. Higher priority normalisers are consulted first.
func (r *Registry) Register(n driven.Normaliser) {
	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// ForFile returns the normaliser for path, falling back to mimeType when no
// extension matches. Returns nil when nothing handles the file.
func (r *Registry) ForFile(path, mimeType string) driven.Normaliser {
	ext := strings.ToLower(filepath.Ext(path))
	for _, n := range r.normalisers {
		for _, e := range n.Extensions() {
			if e == ext {
				return n
			}
		}
	}
	if mimeType == "" {
		return nil
	}
	base, _, _ := strings.Cut(mimeType, ";")
	for _, n := range r.normalisers {
		for _, m := range n.SupportedMIMETypes() {
			if m == base {
				return n
			}
		}
	}
	return nil
}

// Extensions returns every extension a registered normaliser handles, sorted.
func (r *Registry) Extensions() []string {
	var out []string
	for _, n := range r.normalisers {
		out = append(out, n.Extensions()...)
	}
	sort.Strings(out)
	return out
}
