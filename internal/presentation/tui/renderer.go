package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// Renderer turns a markdown report into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a Renderer that renders markdown using glamour.
func NewRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return PlainRenderer
	}
	return r.Render
}

// PlainRenderer returns the markdown untouched.
func PlainRenderer(markdown string) (string, error) {
	return markdown, nil
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// RendererFor picks the glamour renderer for terminals and plain markdown
// for pipes and files.
func RendererFor(w io.Writer) Renderer {
	if IsTerminal(w) {
		return NewRenderer()
	}
	return PlainRenderer
}
