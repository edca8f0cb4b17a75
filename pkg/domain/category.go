package domain

import "fmt"

// Category identifies which branch of the command grammar a phrase belongs to.
// The set is closed; categories are mutually exclusive.
type Category int

const (
	CategoryUnrecognized Category = iota
	CategoryMovement
	CategoryDoorSelection
	CategoryDoorAction
	CategorySessionControl
	CategoryNewGame
)

var categoryNames = map[Category]string{
	CategoryUnrecognized:   "unrecognized",
	CategoryMovement:       "movement",
	CategoryDoorSelection:  "door-selection",
	CategoryDoorAction:     "door-action",
	CategorySessionControl: "session-control",
	CategoryNewGame:        "new-game",
}

// Categories lists every category in classifier priority order, fallback last.
func Categories() []Category {
	return []Category{
		CategoryMovement,
		CategoryDoorSelection,
		CategoryDoorAction,
		CategorySessionControl,
		CategoryNewGame,
		CategoryUnrecognized,
	}
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Recognized reports whether the category is part of the grammar.
func (c Category) Recognized() bool {
	return c != CategoryUnrecognized
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory resolves a category from its wire name.
func ParseCategory(name string) (Category, error) {
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return CategoryUnrecognized, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// Classification is the result of classifying a token sequence.
// Door is only set for CategoryDoorSelection and holds the selected letter.
type Classification struct {
	Category Category `json:"category"`
	Door     string   `json:"door,omitempty"`
}

// Valid reports whether the phrase was accepted by the grammar.
func (c Classification) Valid() bool {
	return c.Category.Recognized()
}
