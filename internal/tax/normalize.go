package tax

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Normalize converts a money string to a canonical decimal:
// "4,723.31" -> "4723.31", "7,522." -> "7522", "(1,200)" -> "-1200".
// Values without a digit are rejected.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return "", false
	}
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return "", false
			}
		}
	}

	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	frac = strings.TrimRight(frac, "0")

	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg && out != "0" {
		out = "-" + out
	}
	return out, true
}

var yearPattern = regexp.MustCompile(`(?:^|[^0-9])((?:19[9][0-9])|(?:20[0-9]{2}))(?:[^0-9]|$)`)

// ResolveYear returns the first 4-digit year (1990-2099) in the file name,
// else the year in the parent directory name. Siblings are never consulted.
func ResolveYear(path string) (int, bool) {
	if y, ok := FindYear(filepath.Base(path)); ok {
		return y, true
	}
	return FindYear(filepath.Base(filepath.Dir(path)))
}

// FindYear returns the first standalone year 1990-2099 in s.
func FindYear(s string) (int, bool) {
	m := yearPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return y, true
}
