package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/llmli/internal/normalisers/docx"
	"github.com/custodia-labs/llmli/internal/normalisers/html"
	"github.com/custodia-labs/llmli/internal/normalisers/markdown"
)

type stubNormaliser struct {
	priority int
}

func (s stubNormaliser) Extensions() []string         { return []string{".md"} }
func (s stubNormaliser) SupportedMIMETypes() []string { return nil }
func (s stubNormaliser) Priority() int                { return s.priority }
func (s stubNormaliser) Normalise(context.Context, string, []byte) (string, error) {
	return "stub", nil
}

func TestRegistry_ForFile(t *testing.T) {
	r := Default()

	tests := []struct {
		path string
		mime string
		want any
	}{
		{"/a/readme.md", "", &markdown.Normaliser{}},
		{"/a/README.MARKDOWN", "", &markdown.Normaliser{}},
		{"/a/page.htm", "", &html.Normaliser{}},
		{"/a/report.docx", "", &docx.Normaliser{}},
		{"/a/noext", "text/html; charset=utf-8", &html.Normaliser{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := r.ForFile(tt.path, tt.mime)
			require.NotNil(t, got)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestRegistry_ForFile_NoMatch(t *testing.T) {
	r := Default()
	assert.Nil(t, r.ForFile("/a/main.go", ""))
	assert.Nil(t, r.ForFile("/a/main.go", "text/plain"))
}

func TestRegistry_PriorityOrder(t *testing.T) {
	r := NewRegistry(markdown.New(), stubNormaliser{priority: 90})

	got, err := r.ForFile("x.md", "").Normalise(context.Background(), "x.md", []byte("# hi"))
	require.NoError(t, err)
	assert.Equal(t, "stub", got)
}

func TestRegistry_Extensions(t *testing.T) {
	assert.Equal(t,
		[]string{".docx", ".htm", ".html", ".markdown", ".md", ".xhtml"},
		Default().Extensions())
}
