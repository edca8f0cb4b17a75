package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/aretw0/vozgraph/internal/cli"
	"github.com/aretw0/vozgraph/internal/config"
	"github.com/aretw0/vozgraph/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// Output formats shared by the reporting commands.
const (
	formatMarkdown = "md"
	formatJSON     = "json"
	formatMermaid  = "mermaid"
)

var rootCmd = &cobra.Command{
	Use:   "vozgraph",
	Short: "vozgraph checks voice commands against the game grammar",
	Long: `vozgraph normalizes recognized speech, classifies it against the voice
command grammar of the game, and turns a session history into a derivation
tree, a fan-out projection and a linear automaton.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file (VOZGRAPH_* variables override it)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("quiet", false, "Discard log output")
}

// loadRuntime reads the configuration and builds the logger selected by the
// persistent flags.
func loadRuntime(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	quiet, _ := cmd.Flags().GetBool("quiet")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.CreateLogger(cfg.Log, debug, quiet)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func checkFormat(format string, allowed ...string) error {
	if !slices.Contains(allowed, format) {
		return fmt.Errorf("unknown format %q (want one of %v)", format, allowed)
	}
	return nil
}

// printMarkdown renders markdown with glamour when w is a terminal.
func printMarkdown(w io.Writer, markdown string) error {
	out, err := tui.RendererFor(w)(markdown)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
