package chunker

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// ChunkCSV emits one piece per data row as
// "CSV row <n>: H1=V1 | H2=V2". The first row is the header.
// Malformed rows are skipped but still consume a row number.
func ChunkCSV(content []byte) []Piece {
	r := csv.NewReader(bytes.NewReader(tightenQuotes(bytes.TrimPrefix(content, utf8BOM))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var headers []string
	var pieces []Piece
	row := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if headers == nil {
			if err != nil {
				// no usable header means no usable rows
				return nil
			}
			headers = make([]string, len(record))
			for i, h := range record {
				headers[i] = CleanCell(h)
			}
			continue
		}

		row++
		var perr *csv.ParseError
		if err != nil {
			if errors.As(err, &perr) {
				continue
			}
			break
		}
		if text := formatRow(row, headers, record); text != "" {
			pieces = append(pieces, Piece{Text: text, RowNumber: row, LineStart: row + 1})
		}
	}
	return pieces
}

// tightenQuotes drops blanks between a quoted field and its delimiters, so
// `"Rank" , "Restaurant"` parses as two fields. encoding/csv in lazy mode
// would otherwise fold both into one cell.
func tightenQuotes(b []byte) []byte {
	out := make([]byte, 0, len(b))
	inQuote, fieldStart := false, true
	for i := 0; i < len(b); i++ {
		c := b[i]
		if inQuote {
			if c == '"' {
				if i+1 < len(b) && b[i+1] == '"' {
					out = append(out, '"', '"')
					i++
					continue
				}
				j := skipBlanks(b, i+1)
				if j == len(b) || b[j] == ',' || b[j] == '\n' || b[j] == '\r' {
					out = append(out, '"')
					inQuote = false
					i = j - 1
					continue
				}
			}
			out = append(out, c)
			continue
		}

		switch c {
		case ',', '\n':
			out = append(out, c)
			fieldStart = true
			continue
		case '\r':
			out = append(out, c)
			continue
		case ' ', '\t':
			if fieldStart {
				if j := skipBlanks(b, i); j < len(b) && b[j] == '"' {
					i = j - 1
					continue
				}
			}
		case '"':
			inQuote = fieldStart
		}
		fieldStart = false
		out = append(out, c)
	}
	return out
}

func skipBlanks(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return i
}

func formatRow(row int, headers, record []string) string {
	pairs := make([]string, 0, len(record))
	for i, v := range record {
		v = CleanCell(v)
		if v == "" {
			continue
		}
		h := fmt.Sprintf("col%d", i+1)
		if i < len(headers) && headers[i] != "" {
			h = headers[i]
		}
		pairs = append(pairs, h+"="+v)
	}
	if len(pairs) == 0 {
		return ""
	}
	return fmt.Sprintf("CSV row %d: %s", row, strings.Join(pairs, " | "))
}

// CleanCell trims whitespace and one pair of enclosing quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
