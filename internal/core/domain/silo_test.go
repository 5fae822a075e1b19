package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify_DifferentPathsDiffer(t *testing.T) {
	a := Slugify("Docs", "/home/a/Docs")
	b := Slugify("Docs", "/home/b/Docs")

	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^docs-[0-9a-f]{8}$`, a)
	assert.Equal(t, a, Slugify("Docs", "/home/a/Docs"))
}

func TestSlugifyName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Documents", "my-documents"},
		{"  tax__2024!! ", "tax-2024"},
		{"Café Notes", "caf-notes"},
		{"", "silo"},
		{"---", "silo"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SlugifyName(tt.in))
		})
	}
}
