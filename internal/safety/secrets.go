package safety

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultSecretExcludes returns the secret path patterns that are never ingested.
// A trailing "/" matches directory components only.
func DefaultSecretExcludes() []string {
	return []string{
		".env", ".env.*", ".aws/", ".ssh/", "*.pem", "*.key",
		"secrets.json", "credentials.json", "credentials*.json",
	}
}

// IsSecret reports whether any component of path matches one of patterns.
func IsSecret(path string, patterns []string) bool {
	parts := splitPath(path)
	if len(parts) == 0 {
		return false
	}
	dirs := parts[:len(parts)-1]

	for _, p := range patterns {
		if dir, ok := strings.CutSuffix(p, "/"); ok {
			for _, d := range dirs {
				if matchComponent(dir, d) {
					return true
				}
			}
			continue
		}
		for _, c := range parts {
			if matchComponent(p, c) {
				return true
			}
		}
	}
	return false
}

func matchComponent(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

func splitPath(path string) []string {
	path = filepath.ToSlash(path)
	raw := strings.Split(path, "/")
	out := raw[:0]
	for _, p := range raw {
		if p != "" && p != "." {
			out = append(out, p)
		}
	}
	return out
}
