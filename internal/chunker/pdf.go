package chunker

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/logger"
)

var (
	lineNumberCell = regexp.MustCompile(`^\d{1,3}[a-z]?$`)
	lineLabelCell  = regexp.MustCompile(`(?i)^line\s+(\d{1,3}[a-z]?)$`)
)

// ChunkPDF emits one piece per page. Page text is assembled strictly as
// the "Structured values:" hint block, the "Extracted tables:" block, then
// the raw page text. Pages that fail to parse are skipped.
func (c *Chunker) ChunkPDF(ctx context.Context, content []byte) ([]Piece, error) {
	if c.pdf == nil {
		return nil, fmt.Errorf("no PDF engine: %w", domain.ErrUnsupportedType)
	}
	pages, err := c.pdf.ExtractPages(ctx, content, c.pdfTables)
	if err != nil {
		return nil, fmt.Errorf("extract pdf: %w", err)
	}

	var pieces []Piece
	for _, p := range pages {
		if p.Err != nil {
			logger.Warn("skipping pdf page %d: %v", p.Number, p.Err)
			continue
		}
		if text := ComposePage(p.Text, p.Tables); text != "" {
			pieces = append(pieces, Piece{Text: text, Page: p.Number})
		}
	}
	return pieces, nil
}

// ComposePage builds the chunk text for one PDF page.
func ComposePage(raw string, tables [][][]string) string {
	var normalized [][][]string
	for _, t := range tables {
		if nt := NormalizeTable(t); len(nt) > 0 {
			normalized = append(normalized, nt)
		}
	}

	var blocks []string
	if hints := LineHints(normalized); len(hints) > 0 {
		blocks = append(blocks, "Structured values:\n"+strings.Join(hints, "\n"))
	}
	if len(normalized) > 0 {
		rendered := make([]string, 0, len(normalized))
		for _, t := range normalized {
			rendered = append(rendered, RenderMarkdown(t))
		}
		blocks = append(blocks, "Extracted tables:\n"+strings.Join(rendered, "\n\n"))
	}
	if raw = strings.TrimSpace(raw); raw != "" {
		blocks = append(blocks, raw)
	}
	return strings.Join(blocks, "\n\n")
}

// NormalizeTable trims cells, drops trailing empty cells and empty rows.
func NormalizeTable(rows [][]string) [][]string {
	var out [][]string
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.TrimSpace(c)
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		if len(cells) > 0 {
			out = append(out, cells)
		}
	}
	return out
}

// LineHints derives "line N: V" from rows shaped [label, N, V], [N, V] or
// ["line N", V]. The label may be empty. Cell splitting drops a leading
// empty column, so [N, V] is the usual form of a sparse PDF row.
func LineHints(tables [][][]string) []string {
	var hints []string
	seen := map[string]bool{}
	add := func(n, v string) {
		h := "line " + n + ": " + v
		if v != "" && !seen[h] {
			seen[h] = true
			hints = append(hints, h)
		}
	}
	for _, t := range tables {
		for _, row := range t {
			switch {
			case len(row) == 3 && lineNumberCell.MatchString(row[1]):
				add(row[1], row[2])
			case len(row) == 2 && lineNumberCell.MatchString(row[0]):
				add(row[0], row[1])
			case len(row) == 2:
				if m := lineLabelCell.FindStringSubmatch(row[0]); m != nil {
					add(m[1], row[1])
				}
			}
		}
	}
	return hints
}

// RenderMarkdown renders rows as a Markdown table; the first row is the header.
func RenderMarkdown(rows [][]string) string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(cells) {
				cell = strings.ReplaceAll(cells[i], "|", `\|`)
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
	}

	writeRow(rows[0])
	sep := make([]string, width)
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, r := range rows[1:] {
		writeRow(r)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
