package chunker

import (
	"strings"
	"unicode/utf8"
)

type line struct {
	text   string
	number int
	runes  int
}

// ChunkText packs lines into windows of at most chunkSize characters.
// Each window after the first starts with the whole trailing lines of the
// previous window that fit in overlap characters. Lines longer than
// chunkSize are split and keep their line number.
func (c *Chunker) ChunkText(text string) []Piece {
	if text == "" {
		return nil
	}
	lines := c.splitLines(text)

	var pieces []Piece
	start, fresh := 0, 0
	for start < len(lines) {
		end, size := start, 0
		for end < len(lines) && (end <= fresh || size+lines[end].runes <= c.chunkSize) {
			size += lines[end].runes
			end++
		}

		var b strings.Builder
		for _, l := range lines[start:end] {
			b.WriteString(l.text)
		}
		pieces = append(pieces, Piece{Text: b.String(), LineStart: lines[start].number})

		if end >= len(lines) {
			break
		}

		next, carry := end, 0
		for next-1 > start && next-1 >= fresh && carry+lines[next-1].runes <= c.overlap {
			carry += lines[next-1].runes
			next--
		}
		start, fresh = next, end
	}
	return pieces
}

// splitLines keeps line terminators so windows concatenate back to the input.
func (c *Chunker) splitLines(text string) []line {
	raw := strings.SplitAfter(text, "\n")
	if raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	lines := make([]line, 0, len(raw))
	for i, s := range raw {
		for _, part := range splitRunes(s, c.chunkSize) {
			lines = append(lines, line{text: part, number: i + 1, runes: utf8.RuneCountInString(part)})
		}
	}
	return lines
}

func splitRunes(s string, n int) []string {
	if utf8.RuneCountInString(s) <= n {
		return []string{s}
	}
	var parts []string
	for s != "" {
		cut, count := 0, 0
		for cut < len(s) && count < n {
			_, w := utf8.DecodeRuneInString(s[cut:])
			cut += w
			count++
		}
		parts = append(parts, s[:cut])
		s = s[cut:]
	}
	return parts
}
