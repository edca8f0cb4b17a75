package main

import (
	"os"
	"strings"

	"github.com/aretw0/vozgraph"
	"github.com/aretw0/vozgraph/internal/cli"
	"github.com/aretw0/vozgraph/internal/presentation/graph"
	"github.com/aretw0/vozgraph/internal/presentation/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play [session-id]",
	Short: "Record commands interactively",
	Long: `Reads one recognized phrase per line, classifies it and appends it to the
session history. Type /help for the meta commands. On exit the closed
automaton of the session is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := uuid.NewString()
		if len(args) > 0 {
			sessionID = args[0]
		}
		showMermaid, _ := cmd.Flags().GetBool("mermaid")
		jsonMode, _ := cmd.Flags().GetBool("json")

		cfg, logger, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		eng, err := cli.NewEngine(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer eng.Close()

		out := cmd.OutOrStdout()
		render := tui.PlainRenderer
		if !jsonMode && tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(out, strings.TrimSpace(vozgraph.Version))
			render = tui.NewRenderer()
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		a, err := cli.RunPlay(sc, eng, cli.PlayOptions{
			SessionID:    sessionID,
			In:           cmd.InOrStdin(),
			Out:          out,
			Render:       render,
			MaxInputSize: cfg.Input.MaxSize,
			JSON:         jsonMode,
		})
		if err != nil {
			return err
		}
		if showMermaid && !jsonMode {
			_, err = out.Write([]byte(graph.GenerateAutomatonMermaid(a, graph.CurrentOverlay(a))))
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().Bool("mermaid", false, "Print the final automaton as a Mermaid diagram")
	playCmd.Flags().Bool("json", false, "Headless mode: NDJSON input and output")
}
