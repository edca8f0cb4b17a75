package domain

import "slices"

// StateKind describes what kind of command led into an automaton state.
type StateKind string

const (
	StateInitial  StateKind = "initial"
	StateMovement StateKind = "movement"
	StateDoor     StateKind = "door"
	StateAction   StateKind = "action"
	StateControl  StateKind = "control"
	StateGeneric  StateKind = "generic"
	StateFinal    StateKind = "final"
)

// EpsilonLabel marks the no-op transition into the terminal state.
const EpsilonLabel = "λ (fin)"

// State is one node of the session automaton. State 0 is always initial.
type State struct {
	ID    int       `json:"id"`
	Label string    `json:"label"`
	Kind  StateKind `json:"kind"`
}

// Transition links two consecutive states.
// Label is the display text; Command keeps the full triggering command.
type Transition struct {
	From    int    `json:"from"`
	To      int    `json:"to"`
	Label   string `json:"label"`
	Command string `json:"command,omitempty"`
	Epsilon bool   `json:"epsilon,omitempty"`
}

// Stats are derived from the history and always satisfy
// ValidCount + InvalidCount == TotalCount.
type Stats struct {
	ValidCount       int `json:"valid_count"`
	InvalidCount     int `json:"invalid_count"`
	TotalCount       int `json:"total_count"`
	TotalStates      int `json:"total_states"`
	TotalTransitions int `json:"total_transitions"`
}

// Diagnostic records a history entry the builder could not use.
type Diagnostic struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Automaton is the linear state path built from one session history.
type Automaton struct {
	States      []State        `json:"states"`
	Transitions []Transition   `json:"transitions"`
	Stats       Stats          `json:"stats"`
	Closed      bool           `json:"closed"`
	HistoryUsed []HistoryEntry `json:"history_used"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
}

// Last returns the most recently added state.
func (a *Automaton) Last() State {
	if len(a.States) == 0 {
		return State{}
	}
	return a.States[len(a.States)-1]
}

// Clone returns a deep copy of the automaton.
func (a *Automaton) Clone() *Automaton {
	if a == nil {
		return nil
	}
	c := *a
	c.States = slices.Clone(a.States)
	c.Transitions = slices.Clone(a.Transitions)
	c.Diagnostics = slices.Clone(a.Diagnostics)
	c.HistoryUsed = make([]HistoryEntry, len(a.HistoryUsed))
	for i, e := range a.HistoryUsed {
		e.Tokens = append(Tokens(nil), e.Tokens...)
		c.HistoryUsed[i] = e
	}
	return &c
}
