package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/vozgraph/internal/presentation/graph"
	"github.com/aretw0/vozgraph/pkg/automaton"
	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/grammar"
	"github.com/stretchr/testify/assert"
)

func entry(cmd string, valid bool, ts string) domain.HistoryEntry {
	return domain.HistoryEntry{Command: cmd, Tokens: grammar.Normalize(cmd), Valid: valid, Timestamp: ts}
}

func TestGenerateTreeMermaid(t *testing.T) {
	a := grammar.Analyze("puerta b")
	out := graph.GenerateTreeMermaid(a.Tree)

	for _, want := range []string{
		"graph TD\n",
		`n0["S"]`,
		`n1["comando"]`,
		`n5(["#quot;puerta#quot;"])`,
		`n6(["#quot;b#quot;"])`,
		"n0 --> n1",
		"n4 --> n6",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "style ")
}

func TestGenerateTreeMermaid_FanOut(t *testing.T) {
	g := automaton.ProjectFanOut([]domain.HistoryEntry{
		entry("derecha", true, "10:00:00"),
		entry("hola", false, "10:00:05"),
	})
	out := graph.GenerateTreeMermaid(g)

	assert.Contains(t, out, `n0(("Historial<br/>(2 comandos)"))`)
	assert.Contains(t, out, `n0 -- "10:00:00" --> n1`)
	assert.Contains(t, out, "style n1 fill:#27AE60,stroke:#27AE60,color:#000")
	assert.Contains(t, out, "style n4 fill:#FADBD8,stroke:#E74C3C,color:#000")
}

func TestGenerateAutomatonMermaid(t *testing.T) {
	a := automaton.Close(automaton.Build([]domain.HistoryEntry{
		entry("derecha", true, "10:00:00"),
		entry("puerta c", true, "10:00:01"),
	}))

	t.Run("Shapes and transitions", func(t *testing.T) {
		out := graph.GenerateAutomatonMermaid(a, nil)
		assert.True(t, strings.HasPrefix(out, "graph LR\n"))
		assert.Contains(t, out, `q0(("q0<br/>(Inicio)"))`)
		assert.Contains(t, out, `q2("q2<br/>(Puerta C)")`)
		assert.Contains(t, out, `q3((("q3<br/>(Final)")))`)
		assert.Contains(t, out, `q0 -- "derecha" --> q1`)
		assert.Contains(t, out, `q2 -. "λ (fin)" .-> q3`)
		assert.NotContains(t, out, "classDef")
	})

	t.Run("Overlay", func(t *testing.T) {
		overlay := graph.CurrentOverlay(a)
		assert.Equal(t, 2, overlay.Current)
		assert.Equal(t, []int{0, 1}, overlay.Visited)

		out := graph.GenerateAutomatonMermaid(a, overlay)
		assert.Contains(t, out, "class q0 visited;")
		assert.Contains(t, out, "class q1 visited;")
		assert.Contains(t, out, "class q2 current;")
	})

	t.Run("Empty history", func(t *testing.T) {
		overlay := graph.CurrentOverlay(automaton.Build(nil))
		assert.Equal(t, 0, overlay.Current)
		assert.Empty(t, overlay.Visited)
	})
}

func TestGenerateTreeMermaid_EscapesUserText(t *testing.T) {
	g := automaton.ProjectFanOut([]domain.HistoryEntry{
		entry(`<b>#1 "hola"`, false, "10:00:00"),
	})
	out := graph.GenerateTreeMermaid(g)

	assert.Contains(t, out, `Cmd 1<br/>#quot;#lt;b#gt;#35;1 \#quot;hola\#quot;#quot;`)
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, `"Historial<br/>(1 comandos)"`)
}
