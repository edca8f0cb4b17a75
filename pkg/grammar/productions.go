package grammar

import (
	"strconv"
	"strings"
)

// StartSymbol is the root nonterminal of every derivation.
const StartSymbol = "S"

// Epsilon is the empty-string symbol.
const Epsilon = "ε"

// Production is a single rewriting rule Head → Body.
type Production struct {
	Head string   `json:"head"`
	Body []string `json:"body"`
	Text string   `json:"text"`
}

func prod(head string, body ...string) Production {
	return Production{Head: head, Body: body, Text: head + " → " + strings.Join(body, " ")}
}

var productions = []Production{
	prod("S", "comando"),
	prod("S", Epsilon),

	prod("comando", "movimiento"),
	prod("comando", "monty"),
	prod("comando", "juego"),

	prod("movimiento", q("izquierda")),
	prod("movimiento", q("derecha")),
	prod("movimiento", q("arriba")),
	prod("movimiento", q("abajo")),

	prod("monty", "puerta"),
	prod("monty", "accion"),
	prod("monty", "control"),

	prod("puerta", "puerta_a"),
	prod("puerta", "puerta_b"),
	prod("puerta", "puerta_c"),
	prod("puerta_a", q("puerta"), q("a")),
	prod("puerta_b", q("puerta"), q("b")),
	prod("puerta_c", q("puerta"), q("c")),

	prod("accion", q("cambiar")),
	prod("accion", q("mantener")),

	prod("control", q("cerrar")),
	prod("control", q("reiniciar")),
	prod("control", q("otra"), q("vez")),

	prod("juego", "nueva"),
	prod("nueva", q("nueva"), q("partida")),
}

func q(word string) string { return strconv.Quote(word) }

// Productions returns every rule of the command grammar.
func Productions() []Production {
	out := make([]Production, len(productions))
	for i, p := range productions {
		p.Body = append([]string(nil), p.Body...)
		out[i] = p
	}
	return out
}

// Nonterminals lists the grammar's nonterminal symbols, start symbol first.
func Nonterminals() []string {
	return []string{
		"S", "comando", "movimiento", "monty", "juego",
		"puerta", "puerta_a", "puerta_b", "puerta_c",
		"accion", "control", "nueva",
	}
}

// Vocabulary lists the bare words the grammar accepts.
func Vocabulary() []string {
	return []string{
		"izquierda", "derecha", "arriba", "abajo",
		"puerta", "a", "b", "c", "cambiar", "mantener",
		"cerrar", "reiniciar", "otra", "vez", "nueva", "partida",
	}
}

// Terminals lists the terminal symbols quoted as they appear in production
// bodies and derivation tree leaves.
func Terminals() []string {
	words := Vocabulary()
	for i, w := range words {
		words[i] = q(w)
	}
	return words
}

// CommandSet groups the recognized phrases the way players see them.
type CommandSet struct {
	Movement []string `json:"movimiento"`
	Monty    struct {
		Doors   []string `json:"puertas"`
		Actions []string `json:"acciones"`
		Control []string `json:"control"`
	} `json:"monty_hall"`
	Game []string `json:"juego"`
}

// Commands returns every phrase the grammar recognizes, grouped by branch.
func Commands() CommandSet {
	var c CommandSet
	c.Movement = append([]string(nil), movementWords...)
	for _, l := range doorLetters {
		c.Monty.Doors = append(c.Monty.Doors, "puerta "+l)
	}
	c.Monty.Actions = append([]string(nil), actionWords...)
	c.Monty.Control = append(append([]string(nil), controlWords...), "otra vez")
	c.Game = []string{"nueva partida"}
	return c
}
