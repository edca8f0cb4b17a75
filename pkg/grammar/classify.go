package grammar

import (
	"slices"
	"strings"

	"github.com/aretw0/vozgraph/pkg/domain"
)

const defaultDoor = "a"

var (
	movementWords = []string{"izquierda", "derecha", "arriba", "abajo"}
	doorLetters   = []string{"a", "b", "c"}
	actionWords   = []string{"cambiar", "mantener"}
	controlWords  = []string{"cerrar", "reiniciar"}
)

// rule is one guard of the classifier chain.
type rule struct {
	name     string
	category domain.Category
	match    func(tokens domain.Tokens, joined string) bool
}

// permissiveRules mirror how commands are recognized in play: prefix and
// substring checks, trailing words ignored.
var permissiveRules = []rule{
	{"movement", domain.CategoryMovement, func(t domain.Tokens, _ string) bool {
		return len(t) == 1 && slices.Contains(movementWords, string(t[0]))
	}},
	{"door-selection", domain.CategoryDoorSelection, func(_ domain.Tokens, j string) bool {
		if strings.HasPrefix(j, "puerta") {
			return true
		}
		for _, l := range doorLetters {
			if strings.Contains(j, "puerta "+l) {
				return true
			}
		}
		return false
	}},
	{"door-action", domain.CategoryDoorAction, func(t domain.Tokens, _ string) bool {
		return len(t) == 1 && slices.Contains(actionWords, string(t[0]))
	}},
	{"session-control", domain.CategorySessionControl, func(t domain.Tokens, j string) bool {
		return (len(t) == 1 && slices.Contains(controlWords, string(t[0]))) || strings.Contains(j, "otra vez")
	}},
	{"new-game", domain.CategoryNewGame, func(_ domain.Tokens, j string) bool {
		return strings.Contains(j, "nueva partida") || j == "nueva"
	}},
}

// strictRules only accept token sequences that the grammar derives exactly.
var strictRules = []rule{
	{"movement", domain.CategoryMovement, func(t domain.Tokens, _ string) bool {
		return len(t) == 1 && slices.Contains(movementWords, string(t[0]))
	}},
	{"door-selection", domain.CategoryDoorSelection, func(t domain.Tokens, _ string) bool {
		return len(t) == 2 && t[0] == "puerta" && slices.Contains(doorLetters, string(t[1]))
	}},
	{"door-action", domain.CategoryDoorAction, func(t domain.Tokens, _ string) bool {
		return len(t) == 1 && slices.Contains(actionWords, string(t[0]))
	}},
	{"session-control", domain.CategorySessionControl, func(t domain.Tokens, j string) bool {
		return (len(t) == 1 && slices.Contains(controlWords, string(t[0]))) || j == "otra vez"
	}},
	{"new-game", domain.CategoryNewGame, func(_ domain.Tokens, j string) bool {
		return j == "nueva partida" || j == "nueva"
	}},
}

// Classifier maps token sequences to command categories.
// The zero value is not usable; use NewClassifier.
type Classifier struct {
	rules  []rule
	strict bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithStrict switches the classifier to token-exact matching.
func WithStrict(strict bool) Option {
	return func(c *Classifier) {
		c.strict = strict
	}
}

// NewClassifier creates a classifier. It is permissive unless WithStrict is given.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{}
	for _, opt := range opts {
		opt(c)
	}
	c.rules = permissiveRules
	if c.strict {
		c.rules = strictRules
	}
	return c
}

// Strict reports whether the classifier uses token-exact matching.
func (c *Classifier) Strict() bool {
	return c.strict
}

// Classify evaluates the rules in priority order; the first match wins.
func (c *Classifier) Classify(tokens domain.Tokens) domain.Classification {
	if len(tokens) == 0 {
		return domain.Classification{Category: domain.CategoryUnrecognized}
	}
	joined := tokens.Join()
	for _, r := range c.rules {
		if !r.match(tokens, joined) {
			continue
		}
		class := domain.Classification{Category: r.category}
		if r.category == domain.CategoryDoorSelection {
			class.Door = defaultDoor
			if len(tokens) > 1 {
				class.Door = string(tokens[1])
			}
		}
		return class
	}
	return domain.Classification{Category: domain.CategoryUnrecognized}
}

var (
	permissive = NewClassifier()
	strict     = NewClassifier(WithStrict(true))
)

// Classify classifies tokens with the permissive rule set.
func Classify(tokens domain.Tokens) domain.Classification {
	return permissive.Classify(tokens)
}

// ClassifyStrict classifies tokens with the token-exact rule set.
func ClassifyStrict(tokens domain.Tokens) domain.Classification {
	return strict.Classify(tokens)
}
