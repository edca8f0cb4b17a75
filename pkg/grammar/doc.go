/*
Package grammar implements the fixed context-free grammar for voice commands.

It turns raw recognized text into tokens, classifies the tokens into exactly
one command category, and builds the derivation tree that explains the match.
Every function here is total: garbled or empty input yields the unrecognized
category and a minimal, well-formed tree rather than an error.

	S          → comando | ε
	comando    → movimiento | monty | juego
	movimiento → "izquierda" | "derecha" | "arriba" | "abajo"
	monty      → puerta | accion | control
	puerta     → puerta_a | puerta_b | puerta_c
	puerta_x   → "puerta" "x"
	accion     → "cambiar" | "mantener"
	control    → "cerrar" | "reiniciar" | "otra" "vez"
	juego      → nueva
	nueva      → "nueva" "partida"
*/
package grammar
