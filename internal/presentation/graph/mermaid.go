package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/vozgraph/pkg/domain"
)

// Overlay highlights automaton states on top of the rendered diagram.
type Overlay struct {
	Visited []int
	Current int
}

// CurrentOverlay marks the last non-terminal state of a as current and every
// earlier state as visited.
func CurrentOverlay(a *domain.Automaton) *Overlay {
	o := &Overlay{Current: -1}
	for _, s := range a.States {
		if s.Kind == domain.StateFinal {
			continue
		}
		if o.Current >= 0 {
			o.Visited = append(o.Visited, o.Current)
		}
		o.Current = s.ID
	}
	return o
}

// GenerateTreeMermaid renders a derivation tree or fan-out projection as a
// top-down flowchart:
// - Nonterminal: [Rectangle]
// - Terminal: (["Stadium"])
// - History root / command: ((Circle))
// Nodes carrying a Style get an inline fill.
func GenerateTreeMermaid(g domain.Graph) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, n := range g.Nodes {
		opener, closer := "[", "]"
		switch n.Kind {
		case domain.KindTerminal, domain.KindToken:
			opener, closer = "([", "])"
		case domain.KindHistory, domain.KindCommand:
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    n%d%s\"%s\"%s\n", n.ID, opener, escapeLabel(n.Label), closer)
	}

	for _, e := range g.Edges {
		if e.Label != "" {
			fmt.Fprintf(&sb, "    n%d -- \"%s\" --> n%d\n", e.From, escapeLabel(e.Label), e.To)
			continue
		}
		fmt.Fprintf(&sb, "    n%d --> n%d\n", e.From, e.To)
	}

	for _, n := range g.Nodes {
		if n.Style == nil || n.Style.Color == "" {
			continue
		}
		stroke := n.Style.BorderColor
		if stroke == "" {
			stroke = n.Style.Color
		}
		fmt.Fprintf(&sb, "    style n%d fill:%s,stroke:%s,color:#000\n", n.ID, n.Style.Color, stroke)
	}

	return sb.String()
}

// GenerateAutomatonMermaid renders the session automaton left to right:
// - Initial: ((Circle))
// - Final: (((Double circle)))
// - Default: ("Rounded")
// Epsilon transitions are dotted. Overlay styles are applied if provided.
func GenerateAutomatonMermaid(a *domain.Automaton, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, s := range a.States {
		opener, closer := "(", ")"
		switch s.Kind {
		case domain.StateInitial:
			opener, closer = "((", "))"
		case domain.StateFinal:
			opener, closer = "(((", ")))"
		}
		fmt.Fprintf(&sb, "    q%d%s\"%s\"%s\n", s.ID, opener, escapeLabel(s.Label), closer)
	}

	for _, t := range a.Transitions {
		arrow := fmt.Sprintf("-- \"%s\" -->", escapeLabel(t.Label))
		if t.Epsilon {
			arrow = fmt.Sprintf("-. \"%s\" .->", escapeLabel(t.Label))
		}
		fmt.Fprintf(&sb, "    q%d %s q%d\n", t.From, arrow, t.To)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[int]bool)
		for _, id := range overlay.Visited {
			if !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class q%d visited;\n", id)
			}
		}
		if overlay.Current >= 0 {
			fmt.Fprintf(&sb, "    class q%d current;\n", overlay.Current)
		}
	}

	return sb.String()
}

var labelEscaper = strings.NewReplacer(
	"#", "#35;",
	"\"", "#quot;",
	"<", "#lt;",
	">", "#gt;",
	"\n", "<br/>",
)

// escapeLabel makes a label safe inside a quoted Mermaid string.
// Line breaks become <br/> after the user text has been escaped.
func escapeLabel(s string) string {
	return labelEscaper.Replace(s)
}
