package automaton

import (
	"fmt"
	"strings"

	"github.com/aretw0/vozgraph/pkg/domain"
)

// Fan-out palette, keyed by validity.
const (
	colorValid        = "#27AE60"
	colorInvalid      = "#E74C3C"
	colorTokenValid   = "#D5F4E6"
	colorTokenInvalid = "#FADBD8"
)

// ProjectFanOut builds the audit view of a history: one root, one child per
// entry (valid or not) and one grandchild per token. Ids are pre-order from 0.
// It is independent of automaton state numbering.
func ProjectFanOut(history []domain.HistoryEntry) domain.Graph {
	g := domain.Graph{
		Nodes: []domain.GrammarNode{{
			ID:    0,
			Label: fmt.Sprintf("Historial\n(%d comandos)", len(history)),
			Kind:  domain.KindHistory,
			Style: &domain.NodeStyle{Color: colorInvalid, Shape: "circle"},
		}},
		Edges: []domain.GrammarEdge{},
	}

	next := 1
	for i, e := range history {
		color, tokenColor, verdict := colorInvalid, colorTokenInvalid, "NO"
		if e.Valid {
			color, tokenColor, verdict = colorValid, colorTokenValid, "SÍ"
		}
		valid := e.Valid

		cmd := domain.GrammarNode{
			ID:    next,
			Label: fmt.Sprintf("Cmd %d\n%q", i+1, e.Command),
			Kind:  domain.KindCommand,
			Title: fmt.Sprintf("Comando: %s\nHora: %s\nVálido: %s", e.Command, e.Timestamp, verdict),
			Valid: &valid,
			Style: &domain.NodeStyle{Color: color, Shape: "circle"},
		}
		g.Nodes = append(g.Nodes, cmd)
		g.Edges = append(g.Edges, domain.GrammarEdge{From: 0, To: cmd.ID, Label: e.Timestamp})
		next++

		tokens := e.Tokens.Strings()
		if len(tokens) == 0 {
			tokens = strings.Fields(e.Command)
		}
		for _, tok := range tokens {
			g.Nodes = append(g.Nodes, domain.GrammarNode{
				ID:    next,
				Label: tok,
				Kind:  domain.KindToken,
				Style: &domain.NodeStyle{Color: tokenColor, BorderColor: color, Shape: "box"},
			})
			g.Edges = append(g.Edges, domain.GrammarEdge{From: cmd.ID, To: next})
			next++
		}
	}
	return g
}
