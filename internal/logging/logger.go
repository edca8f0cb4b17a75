// Package logging builds the slog loggers shared by the CLI, the HTTP
// service and the MCP server.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Output formats accepted by NewWithFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New creates a text logger on Stderr, keeping Stdout free for command
// output and JSON-RPC.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, options(level)))
}

// NewWithFormat creates a logger writing to w in the given format.
// An empty format means text.
func NewWithFormat(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	switch format {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, options(level))), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, options(level))), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func options(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// "error" and "err" are both used at call sites.
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
}
