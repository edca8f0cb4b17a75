package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/ports"
)

// RedactMask replaces every redacted span.
const RedactMask = "***"

type redactMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks spans of recorded commands and tokens that match
// any pattern before they reach the store.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, session *domain.Session) error {
	cloned := session.Clone()
	for i := range cloned.History {
		e := &cloned.History[i]
		e.Command = m.mask(e.Command)
		for j, tok := range e.Tokens {
			e.Tokens[j] = domain.Token(m.mask(string(tok)))
		}
	}
	cloned.LastCommand = m.mask(cloned.LastCommand)
	return m.next.Save(ctx, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, RedactMask)
	}
	return s
}
