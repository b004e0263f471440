package dice

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Collection pairs an ordered set of dice with the target sum players aim for
type Collection struct {
	Key    string `json:"key"`
	Dice   []int  `json:"dice"`
	Target int    `json:"target"`
}

// DefaultCollections returns the two collections the game ships with
func DefaultCollections() map[string]Collection {
	return map[string]Collection{
		"A": {Key: "A", Dice: []int{4, 8, 12}, Target: 14},
		"B": {Key: "B", Dice: []int{6, 10, 20}, Target: 21},
	}
}

// Validate checks that the collection can be played
func (c Collection) Validate() error {
	if len(c.Dice) == 0 {
		return fmt.Errorf("collection %q: %w", c.Key, ErrEmptyCollection)
	}
	for i, sides := range c.Dice {
		if sides <= 0 {
			return fmt.Errorf("collection %q die %d has %d sides: %w", c.Key, i, sides, ErrInvalidSides)
		}
	}
	if c.Target <= 0 {
		return fmt.Errorf("collection %q target %d: %w", c.Key, c.Target, ErrInvalidTarget)
	}
	return nil
}

// NumActions is the action space size: one reroll per die plus stop
func (c Collection) NumActions() int {
	return len(c.Dice) + 1
}

// StopAction is the index of the stop action
func (c Collection) StopAction() int {
	return len(c.Dice)
}

// SameDice reports whether dice matches the collection's dice in order
func (c Collection) SameDice(dice []int) bool {
	return slices.Equal(c.Dice, dice)
}

// Clone returns a copy that shares no memory with c
func (c Collection) Clone() Collection {
	return Collection{Key: c.Key, Dice: slices.Clone(c.Dice), Target: c.Target}
}

// String renders the collection like "A: d4, d8, d12 (aim <= 14)"
func (c Collection) String() string {
	parts := make([]string, len(c.Dice))
	for i, d := range c.Dice {
		parts[i] = fmt.Sprintf("d%d", d)
	}
	return fmt.Sprintf("%s: %s (aim <= %d)", c.Key, strings.Join(parts, ", "), c.Target)
}

// Lookup finds a collection by key, ignoring case
func Lookup(collections map[string]Collection, key string) (Collection, error) {
	for k, c := range collections {
		if strings.EqualFold(k, key) {
			return c, nil
		}
	}
	return Collection{}, fmt.Errorf("%q: %w", key, ErrUnknownCollection)
}

// SortedKeys returns collection keys in lexical order
func SortedKeys(collections map[string]Collection) []string {
	keys := make([]string, 0, len(collections))
	for k := range collections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
