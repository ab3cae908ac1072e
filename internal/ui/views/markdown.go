package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown renders item notes with glamour. A renderer is expensive to
// build, so one is kept per style and wrap width.
type Markdown struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown creates an empty renderer cache
func NewMarkdown() *Markdown {
	return &Markdown{}
}

// Render formats src for the terminal. On any renderer error the source
// text is returned unchanged.
func (m *Markdown) Render(src, style string, width int) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	if m.renderer == nil || m.style != style || m.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return src
		}
		m.renderer, m.style, m.width = r, style, width
	}
	out, err := m.renderer.Render(src)
	if err != nil {
		return src
	}
	return strings.Trim(out, "\n")
}
