package grammar

import (
	"strings"

	"github.com/aretw0/vozgraph/pkg/domain"
)

// Derivation is the leftmost derivation that produces a tree's yield.
type Derivation struct {
	// Steps holds each sentential form, starting with the start symbol.
	Steps []string `json:"steps"`
	// Rules holds the production applied at each step, in order.
	Rules []Production `json:"rules"`
}

// Derive replays a derivation tree as a sequence of leftmost rewrites.
func Derive(tree domain.Tree) Derivation {
	root, ok := tree.Root()
	if !ok {
		return Derivation{Steps: []string{}, Rules: []Production{}}
	}

	labels := make(map[int]string, len(tree.Nodes))
	for _, n := range tree.Nodes {
		labels[n.ID] = n.Label
	}
	children := make(map[int][]int, len(tree.Nodes))
	for _, e := range tree.Edges {
		children[e.From] = append(children[e.From], e.To)
	}

	render := func(form []int) string {
		parts := make([]string, len(form))
		for i, id := range form {
			parts[i] = labels[id]
		}
		return strings.Join(parts, " ")
	}

	form := []int{root.ID}
	d := Derivation{Steps: []string{render(form)}, Rules: []Production{}}

	for {
		pos := -1
		for i, id := range form {
			if len(children[id]) > 0 {
				pos = i
				break
			}
		}
		if pos < 0 {
			return d
		}

		id := form[pos]
		kids := children[id]
		body := make([]string, len(kids))
		for i, k := range kids {
			body[i] = labels[k]
		}

		next := make([]int, 0, len(form)+len(kids)-1)
		next = append(next, form[:pos]...)
		next = append(next, kids...)
		next = append(next, form[pos+1:]...)
		form = next

		d.Steps = append(d.Steps, render(form))
		d.Rules = append(d.Rules, prod(labels[id], body...))
	}
}
