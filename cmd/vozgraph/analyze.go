package main

import (
	"strings"

	"github.com/aretw0/vozgraph"
	"github.com/aretw0/vozgraph/internal/input"
	"github.com/aretw0/vozgraph/internal/presentation/graph"
	"github.com/aretw0/vozgraph/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <phrase>...",
	Short: "Classify one phrase and show its derivation",
	Long: `Normalizes the phrase, classifies it against the grammar and prints the
tokens, the verdict and the leftmost derivation. Nothing is recorded.`,
	Example: `  vozgraph analyze puerta b
  vozgraph analyze "Cambiar" --format mermaid`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format, formatMarkdown, formatJSON, formatMermaid); err != nil {
			return err
		}
		cfg, logger, err := loadRuntime(cmd)
		if err != nil {
			return err
		}

		phrase, err := input.SanitizeLimit(strings.Join(args, " "), cfg.Input.MaxSize)
		if err != nil {
			return err
		}

		eng := vozgraph.New(
			vozgraph.WithLogger(logger),
			vozgraph.WithStrict(cfg.Classifier.Strict),
		)
		defer eng.Close()

		analysis := eng.Analyze(cmd.Context(), phrase)
		out := cmd.OutOrStdout()
		switch format {
		case formatJSON:
			return printJSON(out, analysis)
		case formatMermaid:
			_, err := out.Write([]byte(graph.GenerateTreeMermaid(analysis.Tree)))
			return err
		default:
			return printMarkdown(out, tui.AnalysisReport(analysis))
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("format", "f", formatMarkdown, "Output format: md, json or mermaid")
}
