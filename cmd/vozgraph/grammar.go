package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/vozgraph/pkg/grammar"
	"github.com/spf13/cobra"
)

var grammarCmd = &cobra.Command{
	Use:   "grammar",
	Short: "Print the command grammar",
	Long:  `Prints the productions, nonterminals and terminals of the voice command grammar, plus the phrases players can say.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format, formatMarkdown, formatJSON); err != nil {
			return err
		}

		if format == formatJSON {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"start":        grammar.StartSymbol,
				"productions":  grammar.Productions(),
				"nonterminals": grammar.Nonterminals(),
				"terminals":    grammar.Terminals(),
				"commands":     grammar.Commands(),
			})
		}
		return printMarkdown(cmd.OutOrStdout(), grammarMarkdown())
	},
}

func init() {
	rootCmd.AddCommand(grammarCmd)
	grammarCmd.Flags().StringP("format", "f", formatMarkdown, "Output format: md or json")
}

func grammarMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# Grammar\n\n```\n")
	for _, p := range grammar.Productions() {
		sb.WriteString(p.Text + "\n")
	}
	sb.WriteString("```\n\n")
	fmt.Fprintf(&sb, "- **Start:** `%s`\n", grammar.StartSymbol)
	fmt.Fprintf(&sb, "- **Nonterminals:** %s\n", strings.Join(grammar.Nonterminals(), ", "))
	fmt.Fprintf(&sb, "- **Terminals:** %s\n\n", strings.Join(grammar.Terminals(), ", "))

	c := grammar.Commands()
	sb.WriteString("## Commands\n\n")
	fmt.Fprintf(&sb, "- **Movement:** %s\n", strings.Join(c.Movement, ", "))
	fmt.Fprintf(&sb, "- **Doors:** %s\n", strings.Join(c.Monty.Doors, ", "))
	fmt.Fprintf(&sb, "- **Actions:** %s\n", strings.Join(c.Monty.Actions, ", "))
	fmt.Fprintf(&sb, "- **Control:** %s\n", strings.Join(c.Monty.Control, ", "))
	fmt.Fprintf(&sb, "- **Game:** %s\n", strings.Join(c.Game, ", "))
	return sb.String()
}
