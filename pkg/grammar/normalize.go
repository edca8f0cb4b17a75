package grammar

import (
	"strings"
	"unicode"

	"github.com/aretw0/vozgraph/pkg/domain"
)

// Normalize lower-cases raw text, drops every rune that is not a letter,
// digit or whitespace, and splits the rest into tokens.
// Empty or all-punctuation input yields an empty, non-nil slice.
func Normalize(raw string) domain.Tokens {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	tokens := make(domain.Tokens, len(fields))
	for i, f := range fields {
		tokens[i] = domain.Token(f)
	}
	return tokens
}
