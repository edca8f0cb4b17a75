package main

import (
	"github.com/aretw0/vozgraph/internal/presentation/graph"
	"github.com/aretw0/vozgraph/pkg/automaton"
	"github.com/spf13/cobra"
)

// treeCmd represents the tree command
var treeCmd = &cobra.Command{
	Use:   "tree <history-file>",
	Short: "Export the fan-out projection of a history",
	Long:  `Reads a JSON or YAML history and outputs a Mermaid diagram (graph TD) with one branch per recorded command.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format, formatMermaid, formatJSON); err != nil {
			return err
		}
		_, logger, err := loadRuntime(cmd)
		if err != nil {
			return err
		}

		file, err := loadHistory(args[0], logger)
		if err != nil {
			return err
		}
		g := automaton.ProjectFanOut(file.Entries)
		if format == formatJSON {
			return printJSON(cmd.OutOrStdout(), g)
		}
		_, err = cmd.OutOrStdout().Write([]byte(graph.GenerateTreeMermaid(g)))
		return err
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().StringP("format", "f", formatMermaid, "Output format: mermaid or json")
}
