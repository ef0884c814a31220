package planner

import (
	"encoding/json"
	"strings"

	"github.com/fdg312/diet-planner/internal/catalog"
)

// SelectionSet maps each meal slot to the chosen meal identifiers.
// Within a slot an identifier appears at most once; order is insertion order.
type SelectionSet map[catalog.MealSlot][]string

func NewSelectionSet() SelectionSet {
	sel := make(SelectionSet, len(catalog.Slots))
	for _, slot := range catalog.Slots {
		sel[slot] = []string{}
	}
	return sel
}

// Clone returns a deep copy; a nil set clones into an empty one.
func (s SelectionSet) Clone() SelectionSet {
	out := NewSelectionSet()
	for slot, ids := range s {
		cp := make([]string, len(ids))
		copy(cp, ids)
		out[slot] = cp
	}
	return out
}

func (s SelectionSet) Contains(slot catalog.MealSlot, mealID string) bool {
	for _, id := range s[slot] {
		if id == mealID {
			return true
		}
	}
	return false
}

// Count returns the number of selected identifiers across all slots.
func (s SelectionSet) Count() int {
	n := 0
	for _, ids := range s {
		n += len(ids)
	}
	return n
}

// Equal compares as sets per slot, ignoring order.
func (s SelectionSet) Equal(other SelectionSet) bool {
	for _, slot := range catalog.Slots {
		a, b := s[slot], other[slot]
		if len(a) != len(b) {
			return false
		}
		seen := make(map[string]struct{}, len(a))
		for _, id := range a {
			seen[id] = struct{}{}
		}
		for _, id := range b {
			if _, ok := seen[id]; !ok {
				return false
			}
		}
	}
	return true
}

type selectionJSON struct {
	Breakfast []string `json:"breakfast"`
	Lunch     []string `json:"lunch"`
	Snacks    []string `json:"snacks"`
	Dinner    []string `json:"dinner"`
}

// MarshalJSON always writes all four slots, empty ones as [].
func (s SelectionSet) MarshalJSON() ([]byte, error) {
	nonNil := func(ids []string) []string {
		if ids == nil {
			return []string{}
		}
		return ids
	}
	return json.Marshal(selectionJSON{
		Breakfast: nonNil(s[catalog.SlotBreakfast]),
		Lunch:     nonNil(s[catalog.SlotLunch]),
		Snacks:    nonNil(s[catalog.SlotSnacks]),
		Dinner:    nonNil(s[catalog.SlotDinner]),
	})
}

// UnmarshalJSON accepts slot aliases, drops unknown slots, blank ids and duplicates.
func (s *SelectionSet) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := NewSelectionSet()
	for key, ids := range raw {
		slot, ok := catalog.ParseSlot(key)
		if !ok {
			continue
		}
		for _, id := range ids {
			id = strings.TrimSpace(id)
			if id == "" || out.Contains(slot, id) {
				continue
			}
			out[slot] = append(out[slot], id)
		}
	}
	*s = out
	return nil
}
