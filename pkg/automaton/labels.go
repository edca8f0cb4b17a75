package automaton

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/grammar"
)

const (
	transitionLabelMax = 15
	genericLabelMax    = 8
)

// truncate shortens s to max runes, appending "..." when it was cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func stateName(id int, detail string) string {
	return fmt.Sprintf("q%d\n(%s)", id, detail)
}

func initialState() domain.State {
	return domain.State{ID: 0, Label: stateName(0, "Inicio"), Kind: domain.StateInitial}
}

func finalState(id int) domain.State {
	return domain.State{ID: id, Label: stateName(id, "Final"), Kind: domain.StateFinal}
}

// describe picks the kind and label detail of the state entered by command.
func describe(command string, tokens domain.Tokens) (domain.StateKind, string) {
	if len(tokens) == 0 {
		tokens = grammar.Normalize(command)
	}
	class := grammar.Classify(tokens)

	switch class.Category {
	case domain.CategoryMovement:
		return domain.StateMovement, command
	case domain.CategoryDoorSelection:
		door := "X"
		for _, t := range tokens {
			if slices.Contains([]string{"a", "b", "c"}, string(t)) {
				door = string(t)
				break
			}
		}
		return domain.StateDoor, "Puerta " + strings.ToUpper(door)
	case domain.CategoryDoorAction:
		return domain.StateAction, command
	case domain.CategoryNewGame:
		return domain.StateControl, "Reset"
	case domain.CategorySessionControl:
		return domain.StateControl, command
	}
	return domain.StateGeneric, truncate(command, genericLabelMax)
}
