package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the vozgraph banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{` __   __          ___                 _    `, "#34d399"},
		{` \ \ / /__ ____ / __|_ _ __ _ _ __ | |_  `, "#2dd4bf"},
		{`  \ V / _ \_ / | (_ | '_/ _' | '_ \| ' \ `, "#22d3ee"},
		{`   \_/\___/__|  \___|_| \__,_| .__/|_||_|`, "#38bdf8"},
		{`                             |_|          `, "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
