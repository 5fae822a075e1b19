package filesystem

import (
	"net/url"
	"regexp"
	"strings"
)

// lineSuffix matches the ":N" line anchor editor links carry.
var lineSuffix = regexp.MustCompile(`:\d+$`)

// ResolvePath converts a source link from an answer back to a local path.
// Handles file:// URIs, editor links such as vscode://file/<path>:12,
// archive member sources and bare paths.
func ResolvePath(link string) string {
	path := link
	switch {
	case strings.HasPrefix(link, "file://"):
		path = strings.TrimPrefix(link, "file://")
	case strings.Contains(link, "://file/"):
		path = "/" + link[strings.Index(link, "://file/")+len("://file/"):]
		path = lineSuffix.ReplaceAllString(path, "")
	default:
		return stripMember(link)
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	return stripMember(path)
}

// stripMember drops the "::entry" part of an archive member source.
func stripMember(path string) string {
	if i := strings.Index(path, "::"); i > 0 {
		return path[:i]
	}
	return path
}
