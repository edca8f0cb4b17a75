package domain_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_TextRoundTrip(t *testing.T) {
	for _, c := range domain.Categories() {
		text, err := c.MarshalText()
		require.NoError(t, err)

		var back domain.Category
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, c, back)
	}

	var c domain.Category
	err := c.UnmarshalText([]byte("teleport"))
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)
}

func TestClassification_JSON(t *testing.T) {
	b, err := json.Marshal(domain.Classification{Category: domain.CategoryDoorSelection, Door: "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"door-selection","door":"b"}`, string(b))
}

func TestGraph_Validate(t *testing.T) {
	ok := domain.Graph{
		Nodes: []domain.GrammarNode{{ID: 0, Label: "S"}, {ID: 1, Label: "comando"}, {ID: 2, Label: `"x"`}},
		Edges: []domain.GrammarEdge{{From: 0, To: 1}, {From: 1, To: 2}},
	}
	require.NoError(t, ok.Validate())

	tests := []struct {
		name  string
		graph domain.Graph
	}{
		{"empty", domain.Graph{}},
		{"duplicate id", domain.Graph{
			Nodes: []domain.GrammarNode{{ID: 0}, {ID: 0}},
			Edges: []domain.GrammarEdge{{From: 0, To: 0}},
		}},
		{"two parents", domain.Graph{
			Nodes: []domain.GrammarNode{{ID: 0}, {ID: 1}, {ID: 2}},
			Edges: []domain.GrammarEdge{{From: 0, To: 2}, {From: 1, To: 2}},
		}},
		{"cycle", domain.Graph{
			Nodes: []domain.GrammarNode{{ID: 0}, {ID: 1}, {ID: 2}},
			Edges: []domain.GrammarEdge{{From: 1, To: 2}, {From: 2, To: 1}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.graph.Validate())
		})
	}
}

func TestHistoryEntry_UnmarshalAliases(t *testing.T) {
	var entries []domain.HistoryEntry
	raw := `[
		{"comando": "puerta a", "valido": true, "timestamp": "10:00:00"},
		{"entrada": "xyz", "valido_gramatical": false},
		{"command": "cambiar", "valid": true, "tokens": ["cambiar"]},
		{"command": "derecha"}
	]`
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))
	require.Len(t, entries, 4)

	assert.Equal(t, "puerta a", entries[0].Command)
	assert.True(t, entries[0].Valid)
	assert.Equal(t, "10:00:00", entries[0].Timestamp)
	assert.Empty(t, entries[0].Malformed())

	assert.Equal(t, "xyz", entries[1].Command)
	assert.False(t, entries[1].Valid)
	assert.Empty(t, entries[1].Malformed())

	assert.Equal(t, domain.TokensOf("cambiar"), entries[2].Tokens)

	assert.Equal(t, "missing validity flag", entries[3].Malformed())
}

func TestHistoryEntry_MarshalKeepsMissingValidity(t *testing.T) {
	var decoded []domain.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(`[{"command":"derecha","valid":false},{"command":"arriba"}]`), &decoded))

	data, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"valid":false`)

	var again []domain.HistoryEntry
	require.NoError(t, json.Unmarshal(data, &again))
	require.Len(t, again, 2)
	assert.Empty(t, again[0].Malformed())
	assert.Equal(t, "missing validity flag", again[1].Malformed())
}

func TestSession_AppendCapsHistory(t *testing.T) {
	s := domain.NewSession("s1", time.Now())
	for i := 0; i < 25; i++ {
		s.Append(domain.HistoryEntry{Command: string(rune('a' + i)), Valid: true}, 20)
	}
	require.Len(t, s.History, 20)
	assert.Equal(t, "f", s.History[0].Command)
	assert.Equal(t, "y", s.LastCommand)

	snap := s.Snapshot()
	snap[0].Command = "changed"
	assert.Equal(t, "f", s.History[0].Command, "snapshot must not alias session history")
}

func TestAggregateError_Unwrap(t *testing.T) {
	err := &domain.AggregateError{Errors: []error{domain.ErrMalformedEntry, errors.New("other")}}
	assert.ErrorIs(t, err, domain.ErrMalformedEntry)
	assert.Contains(t, err.Error(), "2 errors")
}
