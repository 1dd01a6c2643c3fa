package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ColorEnabled reports whether w should receive ANSI colors. NO_COLOR
// and TERM=dumb turn colors off; otherwise w must be a terminal.
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// Palette styles listing output. A disabled palette returns text unchanged.
type Palette struct {
	enabled bool
	overdue lipgloss.Style
	today   lipgloss.Style
	header  lipgloss.Style
}

// NewPalette returns a palette for w.
func NewPalette(w io.Writer) *Palette {
	return newPalette(w, ColorEnabled(w))
}

// PlainPalette never colors.
func PlainPalette() *Palette {
	return newPalette(io.Discard, false)
}

func newPalette(w io.Writer, enabled bool) *Palette {
	r := lipgloss.NewRenderer(w)
	return &Palette{
		enabled: enabled,
		overdue: r.NewStyle().Foreground(lipgloss.Color("1")),
		today:   r.NewStyle().Foreground(lipgloss.Color("3")),
		header:  r.NewStyle().Bold(true),
	}
}

// Enabled reports whether the palette colors text.
func (p *Palette) Enabled() bool {
	return p.enabled
}

// Overdue renders text in red.
func (p *Palette) Overdue(text string) string {
	return p.render(p.overdue, text)
}

// Today renders text in yellow.
func (p *Palette) Today(text string) string {
	return p.render(p.today, text)
}

// Header renders text in bold.
func (p *Palette) Header(text string) string {
	return p.render(p.header, text)
}

func (p *Palette) render(style lipgloss.Style, text string) string {
	if !p.enabled {
		return text
	}
	return style.Render(text)
}

// DefaultWidth is used when w is not a terminal.
const DefaultWidth = 80

// TerminalWidth returns the column count of w, or DefaultWidth.
func TerminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok {
		return DefaultWidth
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}
