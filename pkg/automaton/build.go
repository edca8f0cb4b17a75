package automaton

import (
	"strings"
	"time"

	"github.com/aretw0/vozgraph/pkg/domain"
)

// Build folds a history into a fresh automaton. The history is copied, never
// re-sorted, and Build(Build(h).HistoryUsed) reproduces the same automaton.
func Build(history []domain.HistoryEntry) *domain.Automaton {
	a := &domain.Automaton{
		States:      []domain.State{initialState()},
		Transitions: []domain.Transition{},
		HistoryUsed: make([]domain.HistoryEntry, 0, len(history)),
	}
	for _, e := range history {
		step(a, e)
	}
	refreshStats(a)
	return a
}

// AppendStep returns a new automaton equal to Build of a's history plus entry.
// A closed automaton stays closed: its terminal state moves after the new step.
// The input automaton is not modified.
func AppendStep(a *domain.Automaton, entry domain.HistoryEntry) *domain.Automaton {
	if a == nil {
		a = Build(nil)
	}
	next := a.Clone()
	wasClosed := next.Closed
	if wasClosed {
		reopen(next)
	}

	step(next, entry)
	refreshStats(next)

	if wasClosed {
		return Close(next)
	}
	return next
}

// Close appends the terminal state, reached from the last state by an epsilon
// transition. Closing a closed automaton returns an equal copy.
func Close(a *domain.Automaton) *domain.Automaton {
	if a == nil {
		a = Build(nil)
	}
	c := a.Clone()
	if c.Closed {
		return c
	}

	last := c.Last()
	final := finalState(last.ID + 1)
	c.States = append(c.States, final)
	c.Transitions = append(c.Transitions, domain.Transition{
		From:    last.ID,
		To:      final.ID,
		Label:   domain.EpsilonLabel,
		Epsilon: true,
	})
	c.Closed = true
	refreshStats(c)
	return c
}

// step consumes one history entry, extending the path when it is valid.
func step(a *domain.Automaton, e domain.HistoryEntry) {
	index := len(a.HistoryUsed)
	e.Tokens = append(domain.Tokens(nil), e.Tokens...)
	prev, hasPrev := lastTimestamp(a.HistoryUsed)
	a.HistoryUsed = append(a.HistoryUsed, e)
	a.Stats.TotalCount++

	if reason := e.Malformed(); reason != "" {
		a.Stats.InvalidCount++
		a.Diagnostics = append(a.Diagnostics, domain.Diagnostic{Index: index, Reason: reason})
		return
	}

	if ts, ok := parseTimestamp(e.Timestamp); ok && hasPrev && ts.Before(prev) {
		a.Diagnostics = append(a.Diagnostics, domain.Diagnostic{
			Index:  index,
			Reason: "timestamp " + e.Timestamp + " is earlier than the previous entry",
		})
	}

	if !e.Valid {
		a.Stats.InvalidCount++
		return
	}
	a.Stats.ValidCount++

	command := strings.ToLower(strings.TrimSpace(e.Command))
	from := a.Last().ID
	kind, detail := describe(command, e.Tokens)
	to := domain.State{ID: from + 1, Label: stateName(from+1, detail), Kind: kind}

	a.States = append(a.States, to)
	a.Transitions = append(a.Transitions, domain.Transition{
		From:    from,
		To:      to.ID,
		Label:   truncate(command, transitionLabelMax),
		Command: e.Command,
	})
}

// reopen strips the terminal state added by Close.
func reopen(a *domain.Automaton) {
	if !a.Closed {
		return
	}
	if n := len(a.States); n > 0 && a.States[n-1].Kind == domain.StateFinal {
		a.States = a.States[:n-1]
	}
	if n := len(a.Transitions); n > 0 && a.Transitions[n-1].Epsilon {
		a.Transitions = a.Transitions[:n-1]
	}
	a.Closed = false
}

func refreshStats(a *domain.Automaton) {
	a.Stats.TotalStates = len(a.States)
	a.Stats.TotalTransitions = len(a.Transitions)
}

func parseTimestamp(s string) (time.Time, bool) {
	t, err := time.Parse(domain.TimestampLayout, s)
	return t, err == nil
}

// lastTimestamp returns the most recent parseable timestamp of a well-formed entry.
func lastTimestamp(history []domain.HistoryEntry) (time.Time, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Malformed() != "" {
			continue
		}
		if t, ok := parseTimestamp(history[i].Timestamp); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
