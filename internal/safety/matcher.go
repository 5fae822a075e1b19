package safety

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher applies include and exclude globs to root-relative slash paths.
// Patterns without a "/" also match the base name, so "*.py" matches at any depth.
type Matcher struct {
	include []string
	exclude []string
}

// NewMatcher validates the patterns and returns a Matcher.
// An empty include list includes everything.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob %q", p)
		}
	}
	return &Matcher{include: include, exclude: exclude}, nil
}

// Allowed reports whether rel passes the include and exclude globs.
func (m *Matcher) Allowed(rel string) bool {
	if m == nil {
		return true
	}
	if len(m.include) > 0 && !anyMatch(m.include, rel) {
		return false
	}
	return !anyMatch(m.exclude, rel)
}

func anyMatch(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, p := range patterns {
		target := rel
		if !strings.Contains(p, "/") {
			target = base
		}
		if ok, _ := doublestar.Match(p, target); ok {
			return true
		}
	}
	return false
}
