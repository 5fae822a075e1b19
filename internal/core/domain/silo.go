package domain

import (
	"strings"
	"time"
	"unicode"
)

// Silo is a named, path-rooted partition of the corpus.
type Silo struct {
	// Slug is slugify(name) + "-" + 8 hex chars of the root path hash.
	Slug string `json:"slug"`

	// Name is the display name, usually the root directory's base name.
	Name string `json:"name"`

	// RootPath is the absolute, resolved root.
	RootPath string `json:"root_path"`

	// FilesIndexed equals the number of manifest records under Slug.
	FilesIndexed int `json:"files_indexed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// FileRecord is the manifest entry for one ingested file within a silo.
type FileRecord struct {
	Path     string   `json:"-"`
	Hash     string   `json:"hash"`
	ChunkIDs []string `json:"chunk_ids"`
	Mtime    int64    `json:"mtime"`
	Size     int64    `json:"size"`
	Silo     string   `json:"-"`
}

// SiloOverlap reports two silos whose roots nest.
type SiloOverlap struct {
	Outer Silo
	Inner Silo
}

// Slugify builds a silo slug from a display name and the root path.
// Same-named roots at different paths get different slugs.
func Slugify(name, rootPath string) string {
	return SlugifyName(name) + "-" + HashString(rootPath)[:8]
}

// SlugifyName lowercases name and collapses every run of non-alphanumerics to "-".
func SlugifyName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if r > unicode.MaxASCII {
				// keep slugs ASCII so they stay shell friendly
				if !dash && b.Len() > 0 {
					b.WriteByte('-')
					dash = true
				}
				continue
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "silo"
	}
	return slug
}
