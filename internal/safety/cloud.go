package safety

import "strings"

// cloudMarkers maps case-sensitive path substrings to provider names.
var cloudMarkers = []struct {
	marker   string
	provider string
}{
	{"OneDrive", "OneDrive"},
	{"Google Drive", "Google Drive"},
	{"Dropbox", "Dropbox"},
	{"Library/Mobile Documents/com~apple~CloudDocs", "iCloud"},
}

// CloudProvider reports the cloud-sync provider a path lives under.
func CloudProvider(path string) (string, bool) {
	for _, m := range cloudMarkers {
		if strings.Contains(path, m.marker) {
			return m.provider, true
		}
	}
	return "", false
}
