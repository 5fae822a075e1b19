package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// answerStyles colours the parts of a rendered answer.
type answerStyles struct {
	Marker  lipgloss.Style
	Heading lipgloss.Style
	Source  lipgloss.Style
	Muted   lipgloss.Style
	Warning lipgloss.Style
}

func newAnswerStyles() answerStyles {
	return answerStyles{
		Marker:  lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#7C3AED")),
		Heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")),
		Source:  lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
	}
}

// useColour reports whether w is a terminal and colour was not disabled.
func useColour(w io.Writer, disabled bool) bool {
	if disabled || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// styleAnswer colours a rendered answer line by line. The plain text layout
// is unchanged so piped output stays parseable.
func styleAnswer(text string, degraded bool) string {
	st := newAnswerStyles()
	lines := strings.Split(text, "\n")
	inSources := false
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "Answered by:"):
			if degraded {
				lines[i] = st.Warning.Render(line)
			} else {
				lines[i] = st.Marker.Render(line)
			}
		case line == "Sources:":
			inSources = true
			lines[i] = st.Heading.Render(line)
		case inSources && strings.HasPrefix(line, "- "):
			lines[i] = st.Source.Render(line)
		case inSources && strings.HasPrefix(line, "  "):
			lines[i] = st.Muted.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
