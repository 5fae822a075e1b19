package domain

// AddRequest configures one ingest run over a root directory.
type AddRequest struct {
	Root string

	// AllowCloud permits roots under cloud-sync folders.
	AllowCloud bool

	// Incremental skips files whose hash matches the manifest.
	Incremental bool

	// Include and Exclude are doublestar globs relative to Root.
	Include []string
	Exclude []string
}

// AddResult summarises an ingest run.
type AddResult struct {
	Silo Silo

	// FilesIndexed is the number of manifest records for the silo after the run.
	FilesIndexed int

	// Failures counts files and archive entries that could not be ingested.
	Failures int

	// SecretsRefused is the part of Failures that matched a secret pattern.
	// Those files are refused again on every run.
	SecretsRefused int

	FilesAdded     int
	FilesUpdated   int
	FilesUnchanged int
	FilesSkipped   int
	FilesRemoved   int

	ChunksAdded   int
	ChunksDeleted int
}

// FileStatus is the outcome of a single-file operation.
type FileStatus string

// Single-file outcomes.
const (
	FileUpdated   FileStatus = "updated"
	FileUnchanged FileStatus = "unchanged"
	FileRemoved   FileStatus = "removed"
	FileMissing   FileStatus = "missing"
)

// AskRequest is one query against the library.
type AskRequest struct {
	Query string

	// Silo is a slug, slug prefix or display name. Empty means every silo.
	Silo string

	// N is the requested result count before intent clamping. Zero means the default.
	N int

	// NoRerank disables the cross-encoder for this query.
	NoRerank bool
}
