/*
Package vozgraph turns short Spanish voice commands into grammar derivations and per-session finite-state automata.

A game driven by speech (a maze combined with the Monty Hall door problem) sends each recognized phrase to vozgraph. The phrase is normalized into tokens, classified against a closed grammar, expanded into a derivation tree, and appended to the player's session history. The history folds into a linear automaton whose states show what the player did and whose statistics count valid and invalid commands.

# Grammar

	S                  → comando | ε
	comando            → movimiento | monty | juego
	movimiento         → "izquierda" | "derecha" | "arriba" | "abajo"
	monty              → puerta | accion | control
	puerta             → puerta_a | puerta_b | puerta_c
	puerta_a           → "puerta" "a"
	accion             → "cambiar" | "mantener"
	control            → "cerrar" | "reiniciar" | "otra" "vez"
	juego              → nueva
	nueva              → "nueva" "partida"

Phrases outside the grammar are still recorded, as invalid entries.

# Architecture

The core packages (pkg/grammar, pkg/automaton, pkg/domain) are pure and synchronous. Sessions, locking and persistence live in pkg/session behind the ports.SessionStore interface, so the Engine can be embedded in a CLI, an HTTP server (pkg/adapters/http) or an MCP server (pkg/adapters/mcp).

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/vozgraph"
	)

	func main() {
		ctx := context.Background()
		eng := vozgraph.New()

		for _, phrase := range []string{"derecha", "puerta b", "cambiar"} {
			if _, err := eng.Record(ctx, "player-1", phrase); err != nil {
				log.Fatal(err)
			}
		}

		a, err := eng.Automaton(ctx, "player-1", true)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(a.Stats.ValidCount, "valid commands")
	}
*/
package vozgraph
