package driven

import "context"

// PDFPage is the extracted content of one PDF page.
type PDFPage struct {
	// Number is 1-based.
	Number int

	// Text is the raw page text.
	Text string

	// Tables holds tables detected on the page, each as rows of cells.
	// Empty unless table extraction is enabled.
	Tables [][][]string

	// Err is set when this page failed to parse; the page is skipped.
	Err error
}

// PageExtractor reads a PDF into pages.
// An error is returned only when the document as a whole cannot be opened.
type PageExtractor interface {
	ExtractPages(ctx context.Context, content []byte, withTables bool) ([]PDFPage, error)
}
