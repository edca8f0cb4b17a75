package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the clock format used when recording history entries.
const TimestampLayout = "15:04:05"

// HistoryEntry is one recorded attempt to issue a voice command.
// Entries are appended by the session store in chronological order and are
// never mutated or re-sorted afterwards.
type HistoryEntry struct {
	Command     string `json:"command"`
	Tokens      Tokens `json:"tokens"`
	Valid       bool   `json:"valid"`
	Timestamp   string `json:"timestamp"`
	ResultPrior string `json:"result_prior,omitempty"`

	// validMissing is set when a decoded record carried no validity flag.
	validMissing bool
}

// NewHistoryEntry builds an entry stamped with the given clock.
func NewHistoryEntry(command string, tokens Tokens, valid bool, at time.Time) HistoryEntry {
	return HistoryEntry{
		Command:   command,
		Tokens:    append(Tokens(nil), tokens...),
		Valid:     valid,
		Timestamp: at.Format(TimestampLayout),
	}
}

// MarkValidMissing flags the entry as lacking a validity field.
// Decoders use it so the automaton builder can report the record.
func (e HistoryEntry) MarkValidMissing() HistoryEntry {
	e.validMissing = true
	return e
}

// Malformed returns a non-empty reason when the entry lacks required fields.
func (e HistoryEntry) Malformed() string {
	switch {
	case strings.TrimSpace(e.Command) == "":
		return "missing command"
	case e.validMissing:
		return "missing validity flag"
	}
	return ""
}

type historyEntryWire struct {
	Command          *string `json:"command"`
	Comando          *string `json:"comando"`
	Entrada          *string `json:"entrada"`
	Tokens           Tokens  `json:"tokens"`
	Valid            *bool   `json:"valid"`
	Valido           *bool   `json:"valido"`
	ValidoGramatical *bool   `json:"valido_gramatical"`
	Timestamp        string  `json:"timestamp"`
	ResultPrior      string  `json:"result_prior"`
	Resultado        string  `json:"resultado_previo"`
}

// MarshalJSON omits valid when the decoded record carried no validity flag,
// so the entry still reports as malformed after a store round trip.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	w := struct {
		Command     string `json:"command"`
		Tokens      Tokens `json:"tokens"`
		Valid       *bool  `json:"valid,omitempty"`
		Timestamp   string `json:"timestamp"`
		ResultPrior string `json:"result_prior,omitempty"`
	}{
		Command:     e.Command,
		Tokens:      e.Tokens,
		Timestamp:   e.Timestamp,
		ResultPrior: e.ResultPrior,
	}
	if !e.validMissing {
		valid := e.Valid
		w.Valid = &valid
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts both the canonical field names and the aliases used
// by older session stores (comando/entrada, valido/valido_gramatical).
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var w historyEntryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*e = HistoryEntry{
		Tokens:      w.Tokens,
		Timestamp:   w.Timestamp,
		ResultPrior: firstNonEmpty(w.ResultPrior, w.Resultado),
	}
	for _, c := range []*string{w.Command, w.Comando, w.Entrada} {
		if c != nil {
			e.Command = *c
			break
		}
	}

	found := false
	for _, v := range []*bool{w.Valid, w.Valido, w.ValidoGramatical} {
		if v != nil {
			e.Valid = *v
			found = true
			break
		}
	}
	e.validMissing = !found
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GameContext is read-only game state echoed by the session store.
// It is displayed next to automaton statistics and never used to build them.
type GameContext struct {
	Won          int    `json:"ganadas"`
	Lost         int    `json:"perdidas"`
	SelectedDoor string `json:"puerta_seleccionada,omitempty"`
	PrizeDoor    string `json:"puerta_premio,omitempty"`
}

// Session is the persisted record of one player's command history.
type Session struct {
	ID          string         `json:"id"`
	History     []HistoryEntry `json:"history"`
	LastCommand string         `json:"last_command,omitempty"`
	Game        GameContext    `json:"game"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Sealed carries the encrypted session when a store middleware hides the payload.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates an empty session.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		History:   []HistoryEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Snapshot returns a deep copy of the history suitable for handing to the
// automaton builder while the session keeps changing.
func (s *Session) Snapshot() []HistoryEntry {
	out := make([]HistoryEntry, len(s.History))
	for i, e := range s.History {
		e.Tokens = append(Tokens(nil), e.Tokens...)
		out[i] = e
	}
	return out
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.History = s.Snapshot()
	return &c
}

// Append records an entry and keeps only the most recent limit entries.
// A limit of zero or less keeps everything.
func (s *Session) Append(e HistoryEntry, limit int) {
	s.History = append(s.History, e)
	if limit > 0 && len(s.History) > limit {
		s.History = append([]HistoryEntry(nil), s.History[len(s.History)-limit:]...)
	}
	s.LastCommand = e.Command
}

// ValidateSessionID rejects IDs that are empty, too long, or contain
// characters outside letters, digits, '-', '_' and '.'.
func ValidateSessionID(id string) error {
	if id == "" || len(id) > 128 || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
		}
	}
	return nil
}
