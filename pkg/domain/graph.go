package domain

import "fmt"

// NodeKind describes the role of a node inside a rendered graph.
type NodeKind string

const (
	KindNonterminal NodeKind = "nonterminal"
	KindTerminal    NodeKind = "terminal"

	// Fan-out projection kinds.
	KindHistory NodeKind = "history"
	KindCommand NodeKind = "command"
	KindToken   NodeKind = "token"
)

// NodeStyle carries presentation hints for graph renderers.
type NodeStyle struct {
	Color       string `json:"color,omitempty"`
	BorderColor string `json:"border_color,omitempty"`
	Shape       string `json:"shape,omitempty"`
}

// GrammarNode is a node of a derivation tree or projection graph.
// IDs are unique within one graph and assigned in pre-order starting at 0.
type GrammarNode struct {
	ID    int        `json:"id"`
	Label string     `json:"label"`
	Kind  NodeKind   `json:"kind"`
	Title string     `json:"title,omitempty"`
	Valid *bool      `json:"valid,omitempty"`
	Style *NodeStyle `json:"style,omitempty"`
}

// GrammarEdge is a parent-derives-child relation.
type GrammarEdge struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Label string `json:"label,omitempty"`
}

// Graph is the node/edge list handed to rendering collaborators.
type Graph struct {
	Nodes []GrammarNode `json:"nodes"`
	Edges []GrammarEdge `json:"edges"`
}

// Tree is a Graph whose edges form a single-rooted tree.
type Tree = Graph

// Root returns the root node (the node with no incoming edge).
func (g Graph) Root() (GrammarNode, bool) {
	incoming := make(map[int]bool, len(g.Edges))
	for _, e := range g.Edges {
		incoming[e.To] = true
	}
	for _, n := range g.Nodes {
		if !incoming[n.ID] {
			return n, true
		}
	}
	return GrammarNode{}, false
}

// Children returns the ids of the direct children of id, in edge order.
func (g Graph) Children(id int) []int {
	var out []int
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Node looks a node up by id.
func (g Graph) Node(id int) (GrammarNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return GrammarNode{}, false
}

// Leaves returns the terminal labels in left-to-right order.
func (g Graph) Leaves() []string {
	var out []string
	for _, n := range g.Nodes {
		if n.Kind == KindTerminal {
			out = append(out, n.Label)
		}
	}
	return out
}

// Validate checks that the graph is a well-formed tree: unique ids, a single
// root, every other node with exactly one incoming edge, and no cycles.
func (g Graph) Validate() error {
	if len(g.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	ids := make(map[int]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if ids[n.ID] {
			return fmt.Errorf("duplicate node id %d", n.ID)
		}
		ids[n.ID] = true
	}
	if len(g.Edges) != len(g.Nodes)-1 {
		return fmt.Errorf("tree with %d nodes must have %d edges, got %d", len(g.Nodes), len(g.Nodes)-1, len(g.Edges))
	}

	parent := make(map[int]int, len(g.Edges))
	for _, e := range g.Edges {
		if !ids[e.From] || !ids[e.To] {
			return fmt.Errorf("edge %d->%d references unknown node", e.From, e.To)
		}
		if _, dup := parent[e.To]; dup {
			return fmt.Errorf("node %d has more than one parent", e.To)
		}
		parent[e.To] = e.From
	}

	root, ok := g.Root()
	if !ok {
		return fmt.Errorf("tree has no root")
	}

	// Every node must reach the root by following parents.
	for id := range ids {
		seen := map[int]bool{}
		cur := id
		for cur != root.ID {
			if seen[cur] {
				return fmt.Errorf("cycle detected at node %d", cur)
			}
			seen[cur] = true
			p, ok := parent[cur]
			if !ok {
				return fmt.Errorf("node %d is not connected to root %d", cur, root.ID)
			}
			cur = p
		}
	}
	return nil
}
