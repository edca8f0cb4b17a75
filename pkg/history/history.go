// Package history reads session histories exported by the game or by other
// stores. JSON and YAML are accepted, as a bare list of entries or as an
// object whose "history", "historial" or "historial_comandos" key holds the list.
package history

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// listKeys are the object keys that may hold the entry list, in lookup order.
var listKeys = []string{"history", "historial", "historial_comandos"}

// gameKeys are the object keys that may hold the game statistics.
var gameKeys = []string{"game", "juego", "estadisticas"}

// File is the decoded content of a history file.
type File struct {
	Entries []domain.HistoryEntry
	Game    *domain.GameContext
}

// record accepts every field name seen in exported histories.
type record struct {
	Command          *string  `mapstructure:"command"`
	Comando          *string  `mapstructure:"comando"`
	Entrada          *string  `mapstructure:"entrada"`
	Tokens           []string `mapstructure:"tokens"`
	Valid            *bool    `mapstructure:"valid"`
	Valido           *bool    `mapstructure:"valido"`
	ValidoGramatical *bool    `mapstructure:"valido_gramatical"`
	Timestamp        string   `mapstructure:"timestamp"`
	ResultPrior      string   `mapstructure:"result_prior"`
	ResultadoPrevio  string   `mapstructure:"resultado_previo"`
}

// Load reads and decodes a history file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return Decode(data)
}

// Decode parses JSON or YAML history data. Entries that cannot be decoded
// are reported together in a *domain.AggregateError; the entries that could
// be decoded are still returned in their original order.
func Decode(data []byte) (*File, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}

	var (
		items []any
		game  *domain.GameContext
	)
	switch v := doc.(type) {
	case nil:
		return &File{Entries: []domain.HistoryEntry{}}, nil
	case []any:
		items = v
	case map[string]any:
		found := false
		for _, key := range listKeys {
			if list, ok := v[key].([]any); ok {
				items, found = list, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: no history list found", domain.ErrMalformedEntry)
		}
		for _, key := range gameKeys {
			if raw, ok := v[key].(map[string]any); ok {
				g, err := decodeGame(raw)
				if err != nil {
					return nil, err
				}
				game = g
				break
			}
		}
	default:
		return nil, fmt.Errorf("%w: unexpected document of type %T", domain.ErrMalformedEntry, doc)
	}

	f := &File{Entries: make([]domain.HistoryEntry, 0, len(items)), Game: game}
	var errs []error
	for i, item := range items {
		e, err := decodeEntry(item)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		f.Entries = append(f.Entries, e)
	}
	if len(errs) > 0 {
		return f, &domain.AggregateError{Errors: errs}
	}
	return f, nil
}

func decodeEntry(item any) (domain.HistoryEntry, error) {
	raw, ok := item.(map[string]any)
	if !ok {
		return domain.HistoryEntry{}, fmt.Errorf("%w: expected an object, got %T", domain.ErrMalformedEntry, item)
	}

	var r record
	if err := weakDecode(raw, "mapstructure", &r); err != nil {
		return domain.HistoryEntry{}, errors.Join(domain.ErrMalformedEntry, err)
	}

	e := domain.HistoryEntry{
		Timestamp:   r.Timestamp,
		ResultPrior: r.ResultPrior,
	}
	if e.ResultPrior == "" {
		e.ResultPrior = r.ResultadoPrevio
	}
	for _, c := range []*string{r.Command, r.Comando, r.Entrada} {
		if c != nil {
			e.Command = *c
			break
		}
	}
	if r.Tokens != nil {
		e.Tokens = make(domain.Tokens, len(r.Tokens))
		for i, t := range r.Tokens {
			e.Tokens[i] = domain.Token(t)
		}
	}

	for _, v := range []*bool{r.Valid, r.Valido, r.ValidoGramatical} {
		if v != nil {
			e.Valid = *v
			return e, nil
		}
	}
	return e.MarkValidMissing(), nil
}

func decodeGame(raw map[string]any) (*domain.GameContext, error) {
	var g domain.GameContext
	if err := weakDecode(raw, "json", &g); err != nil {
		return nil, fmt.Errorf("failed to decode game context: %w", err)
	}
	return &g, nil
}

func weakDecode(input map[string]any, tag string, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          tag,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
