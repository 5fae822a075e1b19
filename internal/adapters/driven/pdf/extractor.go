// Package pdf provides a PageExtractor backed by github.com/ledongthuc/pdf.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/llmli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

const (
	// cellGap is the horizontal gap, in points, that separates two cells.
	cellGap = 12.0

	// wordGap is the gap that separates two words within one cell.
	wordGap = 1.5

	// minTableRows is the number of consecutive multi-cell rows that form a table.
	minTableRows = 2
)

// Extractor reads PDF pages with ledongthuc/pdf.
type Extractor struct{}

// NewExtractor creates a PDF page extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPages returns one entry per page. A page that fails to parse is
// returned with Err set so the caller can skip it.
func (e *Extractor) ExtractPages(ctx context.Context, content []byte, withTables bool) ([]driven.PDFPage, error) {
	r, err := openReader(content)
	if err != nil {
		return nil, err
	}

	n := r.NumPage()
	pages := make([]driven.PDFPage, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, readPage(r, i, withTables))
	}
	return pages, nil
}

func openReader(content []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("open pdf: %v", rec)
		}
	}()
	r, err = pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return r, nil
}

// readPage extracts one page. The parser panics on some malformed content
// streams, so each page is isolated.
func readPage(r *pdf.Reader, number int, withTables bool) (page driven.PDFPage) {
	page.Number = number
	defer func() {
		if rec := recover(); rec != nil {
			page = driven.PDFPage{Number: number, Err: fmt.Errorf("page %d: %v", number, rec)}
		}
	}()

	p := r.Page(number)
	if p.V.IsNull() {
		return page
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		page.Err = fmt.Errorf("page %d: %w", number, err)
		return page
	}
	page.Text = strings.TrimSpace(text)

	if withTables {
		rows, err := p.GetTextByRow()
		if err == nil {
			lines := make([][]pdf.Text, 0, len(rows))
			for _, row := range rows {
				lines = append(lines, row.Content)
			}
			page.Tables = DetectTables(lines)
		}
	}
	return page
}

// DetectTables groups consecutive rows that split into two or more cells.
func DetectTables(rows [][]pdf.Text) [][][]string {
	var (
		tables  [][][]string
		current [][]string
	)
	flush := func() {
		if len(current) >= minTableRows {
			tables = append(tables, current)
		}
		current = nil
	}
	for _, row := range rows {
		cells := SplitCells(row)
		if len(cells) < 2 {
			flush()
			continue
		}
		current = append(current, cells)
	}
	flush()
	return tables
}

// SplitCells joins a row's glyph runs into cells, breaking on wide gaps.
func SplitCells(row []pdf.Text) []string {
	if len(row) == 0 {
		return nil
	}
	sorted := append([]pdf.Text(nil), row...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var (
		cells []string
		cell  strings.Builder
		end   = sorted[0].X
	)
	for i, t := range sorted {
		if i > 0 {
			gap := t.X - end
			switch {
			case gap > cellGap:
				cells = append(cells, strings.TrimSpace(cell.String()))
				cell.Reset()
			case gap > wordGap && !strings.HasSuffix(cell.String(), " "):
				cell.WriteByte(' ')
			}
		}
		cell.WriteString(t.S)
		if e := t.X + t.W; e > end || i == 0 {
			end = e
		}
	}
	cells = append(cells, strings.TrimSpace(cell.String()))
	return cells
}
