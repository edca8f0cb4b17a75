package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/grammar"
)

// AnalysisReport formats one analysis as markdown.
func AnalysisReport(a grammar.Analysis) string {
	var sb strings.Builder

	verdict := "✅ valid"
	if !a.Valid {
		verdict = "❌ not in the grammar"
	}
	fmt.Fprintf(&sb, "# %q\n\n", a.Input)
	fmt.Fprintf(&sb, "- **Tokens:** `%s`\n", strings.Join(a.Tokens.Strings(), " "))
	fmt.Fprintf(&sb, "- **Category:** %s\n", a.Classification.Category)
	if a.Classification.Door != "" {
		fmt.Fprintf(&sb, "- **Door:** %s\n", strings.ToUpper(a.Classification.Door))
	}
	fmt.Fprintf(&sb, "- **Verdict:** %s\n", verdict)

	if len(a.Derivation.Steps) > 0 {
		sb.WriteString("\n## Derivation\n\n```\n")
		for i, step := range a.Derivation.Steps {
			if i == 0 {
				sb.WriteString(step + "\n")
				continue
			}
			sb.WriteString("⇒ " + step + "\n")
		}
		sb.WriteString("```\n\n")
		for _, r := range a.Derivation.Rules {
			fmt.Fprintf(&sb, "1. `%s`\n", r.Text)
		}
	}
	return sb.String()
}

// AutomatonReport formats an automaton, and the game context when given, as markdown.
func AutomatonReport(a *domain.Automaton, game *domain.GameContext) string {
	var sb strings.Builder

	sb.WriteString("# Automaton\n\n")
	sb.WriteString("| Valid | Invalid | Total | States | Transitions |\n")
	sb.WriteString("|------:|--------:|------:|-------:|------------:|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d | %d |\n\n",
		a.Stats.ValidCount, a.Stats.InvalidCount, a.Stats.TotalCount,
		a.Stats.TotalStates, a.Stats.TotalTransitions)

	if len(a.Transitions) > 0 {
		sb.WriteString("## Transitions\n\n")
		for _, t := range a.Transitions {
			fmt.Fprintf(&sb, "- `q%d` → `q%d` on *%s*\n", t.From, t.To, t.Label)
		}
		sb.WriteString("\n")
	}

	if len(a.Diagnostics) > 0 {
		sb.WriteString("## Diagnostics\n\n")
		for _, d := range a.Diagnostics {
			fmt.Fprintf(&sb, "- entry %d: %s\n", d.Index, d.Reason)
		}
		sb.WriteString("\n")
	}

	if game != nil && (*game != domain.GameContext{}) {
		sb.WriteString("## Game\n\n")
		fmt.Fprintf(&sb, "- **Won:** %d\n- **Lost:** %d\n", game.Won, game.Lost)
		if game.SelectedDoor != "" {
			fmt.Fprintf(&sb, "- **Selected door:** %s\n", strings.ToUpper(game.SelectedDoor))
		}
		if game.PrizeDoor != "" {
			fmt.Fprintf(&sb, "- **Prize door:** %s\n", strings.ToUpper(game.PrizeDoor))
		}
	}
	return sb.String()
}

// HistoryReport lists a session history as a markdown table.
func HistoryReport(s *domain.Session) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Session `%s`\n\n", s.ID)
	if len(s.History) == 0 {
		sb.WriteString("*No commands recorded.*\n")
		return sb.String()
	}
	sb.WriteString("| # | Time | Command | Valid |\n")
	sb.WriteString("|--:|------|---------|:-----:|\n")
	for i, e := range s.History {
		mark := "✗"
		if e.Valid {
			mark = "✓"
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n", i+1, e.Timestamp, strings.ReplaceAll(e.Command, "|", `\|`), mark)
	}
	return sb.String()
}
