package driven

import "context"

// Normaliser converts a rich document format into plain text for the line chunker.
// Each normaliser handles specific extensions and MIME types (e.g., Markdown, DOCX).
type Normaliser interface {
	// Extensions returns the lowercase file extensions (with dot) this normaliser handles.
	Extensions() []string

	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format normalisers return 50, fallbacks 1-9.
	Priority() int

	// Normalise converts content to plain text. path is used only for
	// diagnostics and title fallback.
	Normalise(ctx context.Context, path string, content []byte) (string, error)
}
