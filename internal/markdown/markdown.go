// Package markdown renders exported task lists for the terminal.
package markdown

import (
	"strings"
	"sync"

	internalstrings "github.com/amonks/tracker/internal/strings"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

type renderer interface {
	Render(string) (string, error)
}

var (
	rendererMu sync.Mutex
	renderers  = map[rendererKey]renderer{}
)

type rendererKey struct {
	width int
	color bool
}

// Render formats markdown for a terminal of the given width. Colored
// output uses glamour's dark style; plain output uses the ASCII style.
// If rendering fails the input is returned unchanged.
func Render(input string, width int, color bool) string {
	value := internalstrings.TrimTrailingNewlines(internalstrings.NormalizeNewlines(input))
	if strings.TrimSpace(value) == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}

	rendered, ok := safeRender(markdownRenderer(width, color), value)
	if !ok {
		return value
	}
	return internalstrings.TrimTrailingNewlines(rendered)
}

func safeRender(r renderer, value string) (rendered string, ok bool) {
	if r == nil {
		return "", false
	}
	defer func() {
		if recover() != nil {
			rendered, ok = "", false
		}
	}()
	out, err := r.Render(value)
	if err != nil || strings.TrimSpace(out) == "" {
		return "", false
	}
	return out, true
}

func markdownRenderer(width int, color bool) renderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	key := rendererKey{width: width, color: color}
	if cached, ok := renderers[key]; ok {
		return cached
	}

	style := styles.ASCIIStyleConfig
	if color {
		style = styles.DarkStyleConfig
	}
	style.Document.Margin = uintPtr(0)
	created, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[key] = created
	return created
}

func uintPtr(v uint) *uint { return &v }
