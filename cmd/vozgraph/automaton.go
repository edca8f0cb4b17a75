package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/vozgraph/internal/cli"
	"github.com/aretw0/vozgraph/internal/presentation/graph"
	"github.com/aretw0/vozgraph/internal/presentation/tui"
	"github.com/aretw0/vozgraph/pkg/automaton"
	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/history"
	"github.com/spf13/cobra"
)

var automatonCmd = &cobra.Command{
	Use:   "automaton [history-file]",
	Short: "Build the linear automaton of a history",
	Long: `Folds a history into its linear automaton and prints the statistics and
transitions. The history comes from a JSON/YAML file or, with --session,
from the configured session store.`,
	Example: `  vozgraph automaton partida.json --closed
  vozgraph automaton --session jugador-1 --format mermaid`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		closed, _ := cmd.Flags().GetBool("closed")
		sessionID, _ := cmd.Flags().GetString("session")
		if err := checkFormat(format, formatMarkdown, formatJSON, formatMermaid); err != nil {
			return err
		}
		if (len(args) == 0) == (sessionID == "") {
			return errors.New("give either a history file or --session")
		}

		cfg, logger, err := loadRuntime(cmd)
		if err != nil {
			return err
		}

		var (
			a    *domain.Automaton
			game *domain.GameContext
		)
		if sessionID != "" {
			eng, err := cli.NewEngine(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer eng.Close()

			s, err := eng.Session(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			if a, err = eng.Automaton(cmd.Context(), sessionID, closed); err != nil {
				return err
			}
			game = &s.Game
		} else {
			file, err := loadHistory(args[0], logger)
			if err != nil {
				return err
			}
			a = automaton.Build(file.Entries)
			if closed {
				a = automaton.Close(a)
			}
			game = file.Game
		}

		for _, d := range a.Diagnostics {
			logger.Warn("history diagnostic", "entry", d.Index, "reason", d.Reason)
		}

		out := cmd.OutOrStdout()
		switch format {
		case formatJSON:
			return printJSON(out, a)
		case formatMermaid:
			_, err := out.Write([]byte(graph.GenerateAutomatonMermaid(a, graph.CurrentOverlay(a))))
			return err
		default:
			return printMarkdown(out, tui.AutomatonReport(a, game))
		}
	},
}

func init() {
	rootCmd.AddCommand(automatonCmd)
	automatonCmd.Flags().StringP("format", "f", formatMarkdown, "Output format: md, json or mermaid")
	automatonCmd.Flags().Bool("closed", false, "Append the final state reached by λ (fin)")
	automatonCmd.Flags().StringP("session", "s", "", "Read the history of this session from the store")
}

// loadHistory decodes a history file. Undecodable entries are logged and
// skipped; the rest of the file is still used.
func loadHistory(path string, logger *slog.Logger) (*history.File, error) {
	file, err := history.Load(path)
	var agg *domain.AggregateError
	switch {
	case err == nil:
	case errors.As(err, &agg) && file != nil:
		for _, e := range agg.Errors {
			logger.Warn("skipping history entry", "file", path, "err", e)
		}
	default:
		return nil, fmt.Errorf("history %s: %w", path, err)
	}
	logger.Debug("history loaded", "file", path, "entries", len(file.Entries))
	return file, nil
}
