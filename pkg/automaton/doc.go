// Package automaton folds a session history into a linear state path.
//
// Every valid entry advances the path by one state; invalid entries only move
// the statistics. Build, AppendStep and Close share one step function, so
// growing an automaton one entry at a time always agrees with building it
// from the full history.
package automaton
