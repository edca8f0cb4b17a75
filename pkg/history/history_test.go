package history_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/vozgraph/pkg/automaton"
	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_JSONList(t *testing.T) {
	f, err := history.Decode([]byte(`[
		{"command": "derecha", "tokens": ["derecha"], "valid": true, "timestamp": "10:00:00"},
		{"comando": "hola", "valido": false, "timestamp": "10:00:01"},
		{"entrada": "puerta b", "valido_gramatical": "true", "timestamp": "10:00:02", "resultado_previo": "ok"}
	]`))
	require.NoError(t, err)
	require.Len(t, f.Entries, 3)
	assert.Nil(t, f.Game)

	assert.Equal(t, "derecha", f.Entries[0].Command)
	assert.Equal(t, domain.Tokens{"derecha"}, f.Entries[0].Tokens)
	assert.True(t, f.Entries[0].Valid)

	assert.Equal(t, "hola", f.Entries[1].Command)
	assert.False(t, f.Entries[1].Valid)

	assert.Equal(t, "puerta b", f.Entries[2].Command)
	assert.True(t, f.Entries[2].Valid)
	assert.Equal(t, "ok", f.Entries[2].ResultPrior)

	for _, e := range f.Entries {
		assert.Empty(t, e.Malformed())
	}
}

func TestDecode_YAMLObject(t *testing.T) {
	f, err := history.Decode([]byte(`
historial:
  - comando: arriba
    valido: true
    timestamp: "09:00:00"
  - comando: cambiar
    valido: 1
    timestamp: "09:00:03"
juego:
  ganadas: 3
  perdidas: "1"
  puerta_seleccionada: b
`))
	require.NoError(t, err)
	require.Len(t, f.Entries, 2)
	assert.Equal(t, "cambiar", f.Entries[1].Command)
	assert.True(t, f.Entries[1].Valid)

	require.NotNil(t, f.Game)
	assert.Equal(t, domain.GameContext{Won: 3, Lost: 1, SelectedDoor: "b"}, *f.Game)
}

func TestDecode_MissingFields(t *testing.T) {
	f, err := history.Decode([]byte(`[{"command": "derecha"}, {"valid": true}]`))
	require.NoError(t, err)
	require.Len(t, f.Entries, 2)
	assert.Equal(t, "missing validity flag", f.Entries[0].Malformed())
	assert.Equal(t, "missing command", f.Entries[1].Malformed())

	a := automaton.Build(f.Entries)
	assert.Equal(t, 2, a.Stats.InvalidCount)
	assert.Len(t, a.Diagnostics, 2)
}

func TestDecode_Errors(t *testing.T) {
	t.Run("Bad entries are aggregated", func(t *testing.T) {
		f, err := history.Decode([]byte(`[{"command": "derecha", "valid": true}, "oops", 42, {"command": {"x": 1}, "valid": true}]`))
		require.Error(t, err)

		var agg *domain.AggregateError
		require.True(t, errors.As(err, &agg))
		assert.Len(t, agg.Errors, 3)
		assert.ErrorIs(t, err, domain.ErrMalformedEntry)
		require.Len(t, f.Entries, 1)
		assert.Equal(t, "derecha", f.Entries[0].Command)
	})

	t.Run("Object without list", func(t *testing.T) {
		_, err := history.Decode([]byte(`{"foo": []}`))
		assert.ErrorIs(t, err, domain.ErrMalformedEntry)
	})

	t.Run("Scalar document", func(t *testing.T) {
		_, err := history.Decode([]byte(`42`))
		assert.ErrorIs(t, err, domain.ErrMalformedEntry)
	})

	t.Run("Syntax error", func(t *testing.T) {
		_, err := history.Decode([]byte(`[{"command": `))
		assert.Error(t, err)
	})

	t.Run("Empty document", func(t *testing.T) {
		f, err := history.Decode(nil)
		require.NoError(t, err)
		assert.Empty(t, f.Entries)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"history": [{"command": "abajo", "valid": true, "timestamp": "08:00:00"}]}`), 0o600))

	f, err := history.Load(path)
	require.NoError(t, err)
	require.Len(t, f.Entries, 1)
	assert.Equal(t, "abajo", f.Entries[0].Command)

	_, err = history.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
