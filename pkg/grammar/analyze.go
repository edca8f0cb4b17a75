package grammar

import "github.com/aretw0/vozgraph/pkg/domain"

// Analysis bundles everything derived from one recognized phrase.
type Analysis struct {
	Input          string                `json:"input"`
	Tokens         domain.Tokens         `json:"tokens"`
	Classification domain.Classification `json:"classification"`
	Tree           domain.Tree           `json:"tree"`
	Derivation     Derivation            `json:"derivation"`
	Valid          bool                  `json:"valid"`
}

// Analyze normalizes, classifies and derives raw text.
// Unrecognized phrases still get a tree but an empty derivation.
func (c *Classifier) Analyze(raw string) Analysis {
	tokens := Normalize(raw)
	class := c.Classify(tokens)
	tree := BuildTree(class, tokens)

	a := Analysis{
		Input:          raw,
		Tokens:         tokens,
		Classification: class,
		Tree:           tree,
		Valid:          class.Valid(),
		Derivation:     Derivation{Steps: []string{}, Rules: []Production{}},
	}
	if a.Valid {
		a.Derivation = Derive(tree)
	}
	return a
}

// Analyze runs the permissive classifier over raw text.
func Analyze(raw string) Analysis {
	return permissive.Analyze(raw)
}
