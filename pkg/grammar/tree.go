package grammar

import (
	"strconv"

	"github.com/aretw0/vozgraph/pkg/domain"
)

// symbol is an unnumbered template node.
type symbol struct {
	label    string
	kind     domain.NodeKind
	children []symbol
}

func nt(label string, children ...symbol) symbol {
	return symbol{label: label, kind: domain.KindNonterminal, children: children}
}

func term(word string) symbol {
	return symbol{label: strconv.Quote(word), kind: domain.KindTerminal}
}

// template returns the fixed derivation for a classified token sequence.
func template(class domain.Classification, tokens domain.Tokens) symbol {
	first := string(tokens.At(0))

	switch class.Category {
	case domain.CategoryMovement:
		return nt("S", nt("comando", nt("movimiento", term(first))))

	case domain.CategoryDoorSelection:
		door := class.Door
		if door == "" {
			door = defaultDoor
		}
		return nt("S", nt("comando", nt("monty", nt("puerta",
			nt("puerta_"+door, term("puerta"), term(door))))))

	case domain.CategoryDoorAction:
		return nt("S", nt("comando", nt("monty", nt("accion", term(first)))))

	case domain.CategorySessionControl:
		if len(tokens) == 2 && tokens[0] == "otra" && tokens[1] == "vez" {
			return nt("S", nt("comando", nt("monty", nt("control", term("otra"), term("vez")))))
		}
		return nt("S", nt("comando", nt("monty", nt("control", term(first)))))

	case domain.CategoryNewGame:
		return nt("S", nt("comando", nt("juego", nt("nueva", term("nueva"), term("partida")))))
	}

	return nt("S", nt("comando", nt("comando_desconocido", term(tokens.Join()))))
}

// BuildTree instantiates the derivation template for a classification.
// Ids are assigned in pre-order starting at 0, so equal inputs always yield
// the same id sequence. The result is always a well-formed tree.
func BuildTree(class domain.Classification, tokens domain.Tokens) domain.Tree {
	var tree domain.Tree
	number(template(class, tokens), -1, 0, &tree)
	return tree
}

// number appends s and its subtree to tree, taking next as the id for s,
// and returns the first id not used by the subtree.
func number(s symbol, parent, next int, tree *domain.Tree) int {
	id := next
	tree.Nodes = append(tree.Nodes, domain.GrammarNode{ID: id, Label: s.label, Kind: s.kind})
	if parent >= 0 {
		tree.Edges = append(tree.Edges, domain.GrammarEdge{From: parent, To: id})
	}
	next++
	for _, child := range s.children {
		next = number(child, id, next, tree)
	}
	return next
}
