package domain

import "strings"

// Token is a normalized lowercase word with no whitespace or punctuation.
// Tokens are only produced by the grammar normalizer.
type Token string

// Tokens is an ordered token sequence.
type Tokens []Token

// Join concatenates the tokens with single spaces.
func (t Tokens) Join() string {
	parts := make([]string, len(t))
	for i, tok := range t {
		parts[i] = string(tok)
	}
	return strings.Join(parts, " ")
}

// Strings returns the tokens as plain strings.
func (t Tokens) Strings() []string {
	out := make([]string, len(t))
	for i, tok := range t {
		out[i] = string(tok)
	}
	return out
}

// At returns the token at index i, or "" if out of range.
func (t Tokens) At(i int) Token {
	if i < 0 || i >= len(t) {
		return ""
	}
	return t[i]
}

// TokensOf converts plain strings to a token sequence without normalizing them.
func TokensOf(words ...string) Tokens {
	out := make(Tokens, len(words))
	for i, w := range words {
		out[i] = Token(w)
	}
	return out
}
