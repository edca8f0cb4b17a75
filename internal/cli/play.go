package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/vozgraph"
	"github.com/aretw0/vozgraph/internal/input"
	"github.com/aretw0/vozgraph/internal/presentation/tui"
	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/session"
)

// Meta commands understood by the interactive loop. Everything else is
// recorded as a voice command.
const (
	MetaQuit      = "/quit"
	MetaAutomaton = "/automaton"
	MetaHistory   = "/history"
	MetaReset     = "/reset"
	MetaHelp      = "/help"
)

// PlayOptions configures RunPlay.
type PlayOptions struct {
	SessionID    string
	In           io.Reader
	Out          io.Writer
	Render       tui.Renderer
	MaxInputSize int

	// JSON switches to headless NDJSON: each input line is a JSON string or
	// raw text, and every recorded entry and the final automaton are written
	// as one JSON object per line. Meta commands still apply.
	JSON bool
}

// playEvent is one NDJSON line of headless output.
type playEvent struct {
	Type      string            `json:"type"`
	Recorded  *session.Recorded `json:"recorded,omitempty"`
	Automaton *domain.Automaton `json:"automaton,omitempty"`
	Session   *domain.Session   `json:"session,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// RunPlay reads one command per line and records it in the session until
// the input ends, /quit is typed or ctx is cancelled. It returns the closed
// automaton of the session at that point.
func RunPlay(ctx context.Context, eng *vozgraph.Engine, opts PlayOptions) (*domain.Automaton, error) {
	if opts.Render == nil {
		opts.Render = tui.PlainRenderer
	}
	if opts.MaxInputSize <= 0 {
		opts.MaxInputSize = input.DefaultMaxInputSize
	}
	if _, err := eng.Manager().LoadOrStart(ctx, opts.SessionID); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	lines := readLines(ctx, opts.In)
	enc := json.NewEncoder(opts.Out)
	if !opts.JSON {
		printSystemMessage(opts.Out, "Session '%s' active. Type %s for commands.", opts.SessionID, MetaHelp)
	}

loop:
	for {
		if !opts.JSON {
			fmt.Fprint(opts.Out, "> ")
		}
		var line string
		select {
		case <-ctx.Done():
			if !opts.JSON {
				fmt.Fprintln(opts.Out)
			}
			break loop
		case l, ok := <-lines:
			if !ok {
				if !opts.JSON {
					fmt.Fprintln(opts.Out)
				}
				break loop
			}
			line = strings.TrimSpace(l)
			if opts.JSON {
				line = unquoteLine(line)
			}
		}
		if line == "" {
			continue
		}

		switch line {
		case MetaQuit:
			break loop
		case MetaHelp:
			if opts.JSON {
				continue
			}
			printSystemMessage(opts.Out, "%s %s %s %s", MetaAutomaton, MetaHistory, MetaReset, MetaQuit)
			continue
		case MetaAutomaton:
			a, err := eng.Automaton(ctx, opts.SessionID, false)
			if err != nil {
				return nil, err
			}
			if opts.JSON {
				if err := enc.Encode(playEvent{Type: "automaton", Automaton: a}); err != nil {
					return nil, err
				}
				continue
			}
			render(opts, tui.AutomatonReport(a, nil))
			continue
		case MetaHistory:
			s, err := eng.Session(ctx, opts.SessionID)
			if err != nil {
				return nil, err
			}
			if opts.JSON {
				if err := enc.Encode(playEvent{Type: "history", Session: s}); err != nil {
					return nil, err
				}
				continue
			}
			render(opts, tui.HistoryReport(s))
			continue
		case MetaReset:
			if err := eng.Reset(ctx, opts.SessionID); err != nil {
				return nil, err
			}
			if !opts.JSON {
				printSystemMessage(opts.Out, "History cleared.")
			}
			continue
		}

		clean, err := input.SanitizeLimit(line, opts.MaxInputSize)
		if err != nil {
			if opts.JSON {
				if err := enc.Encode(playEvent{Type: "rejected", Error: err.Error()}); err != nil {
					return nil, err
				}
				continue
			}
			printSystemMessage(opts.Out, "Rejected: %v", err)
			continue
		}
		rec, err := eng.Record(ctx, opts.SessionID, clean)
		if errors.Is(err, domain.ErrEmptyCommand) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if opts.JSON {
			if err := enc.Encode(playEvent{Type: "recorded", Recorded: rec}); err != nil {
				return nil, err
			}
			continue
		}
		printRecorded(opts.Out, rec.Analysis.Classification, rec.Entry)
	}

	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	// The loop may have ended on cancellation; the final report still needs a live context.
	a, err := eng.Automaton(context.WithoutCancel(ctx), opts.SessionID, true)
	if err != nil {
		return nil, err
	}
	if opts.JSON {
		return a, enc.Encode(playEvent{Type: "automaton", Automaton: a})
	}
	render(opts, tui.AutomatonReport(a, nil))
	return a, nil
}

// unquoteLine accepts a JSON string literal and falls back to the raw text.
func unquoteLine(line string) string {
	var val string
	if err := json.Unmarshal([]byte(line), &val); err == nil {
		return strings.TrimSpace(val)
	}
	return line
}

// readLines feeds scanned lines into a channel that is closed at EOF.
// The scanner goroutine exits once ctx is done and its pending send is dropped.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func printRecorded(w io.Writer, class domain.Classification, e domain.HistoryEntry) {
	mark := "✗"
	if e.Valid {
		mark = "✓"
	}
	detail := class.Category.String()
	if class.Door != "" {
		detail += " " + strings.ToUpper(class.Door)
	}
	fmt.Fprintf(w, "%s [%s] %s\n", mark, e.Timestamp, detail)
}

func render(opts PlayOptions, markdown string) {
	out, err := opts.Render(markdown)
	if err != nil {
		out = markdown
	}
	fmt.Fprint(opts.Out, out)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
