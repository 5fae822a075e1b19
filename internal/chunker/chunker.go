// Package chunker splits files into retrieval units: line windows for text
// and code, one unit per row for CSV and one unit per page for PDF.
package chunker

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
	"github.com/custodia-labs/llmli/internal/normalisers"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1200

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 150

// Piece is a chunk before it is bound to a silo and source.
type Piece struct {
	Text      string
	LineStart int
	Page      int
	RowNumber int
}

// Chunker dispatches files to a format-specific strategy.
type Chunker struct {
	chunkSize   int
	overlap     int
	pdf         driven.PageExtractor
	pdfTables   bool
	normalisers *normalisers.Registry
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithPDFExtractor sets the PDF engine. Without one, PDFs are unsupported.
func WithPDFExtractor(e driven.PageExtractor) Option {
	return func(c *Chunker) {
		c.pdf = e
	}
}

// WithPDFTables enables table extraction and hint prepending for PDF pages.
func WithPDFTables(enabled bool) Option {
	return func(c *Chunker) {
		c.pdfTables = enabled
	}
}

// WithNormalisers replaces the default normaliser registry.
func WithNormalisers(r *normalisers.Registry) Option {
	return func(c *Chunker) {
		c.normalisers = r
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize:   DefaultChunkSize,
		overlap:     DefaultChunkOverlap,
		normalisers: normalisers.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

// ChunkFile splits content according to the extension of path.
// Binary content returns domain.ErrBinaryFile. Text pieces that hold only
// whitespace are not returned, so the stored set covers every non-blank
// line but not long blank runs; ChunkText keeps them.
func (c *Chunker) ChunkFile(ctx context.Context, path string, content []byte) ([]Piece, error) {
	if len(content) == 0 {
		return nil, nil
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ChunkCSV(content), nil
	case ".pdf":
		return c.ChunkPDF(ctx, content)
	}

	mtype := mimetype.Detect(content)
	if n := c.normalisers.ForFile(path, mtype.String()); n != nil {
		text, err := n.Normalise(ctx, path, content)
		if err != nil {
			return nil, fmt.Errorf("normalise: %w", err)
		}
		return nonBlank(c.ChunkText(text)), nil
	}

	if !isText(mtype) {
		return nil, fmt.Errorf("%s is %s: %w", filepath.Base(path), mtype.String(), domain.ErrBinaryFile)
	}
	return nonBlank(c.ChunkText(string(content))), nil
}

// SupportedExtensions lists the extensions that get a dedicated strategy.
// Everything else is treated as text when it sniffs as text.
func (c *Chunker) SupportedExtensions() []string {
	exts := []string{".csv"}
	if c.pdf != nil {
		exts = append(exts, ".pdf")
	}
	return append(exts, c.normalisers.Extensions()...)
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func nonBlank(pieces []Piece) []Piece {
	out := pieces[:0]
	for _, p := range pieces {
		if strings.TrimSpace(p.Text) != "" {
			out = append(out, p)
		}
	}
	return out
}
