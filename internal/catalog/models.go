package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// MealSlot: один из четырёх приёмов пищи, по которым разбит выбор пользователя.
type MealSlot string

const (
	SlotBreakfast MealSlot = "breakfast"
	SlotLunch     MealSlot = "lunch"
	SlotSnacks    MealSlot = "snacks"
	SlotDinner    MealSlot = "dinner"
)

// Slots lists meal slots in canonical display order.
var Slots = []MealSlot{SlotBreakfast, SlotLunch, SlotSnacks, SlotDinner}

// ParseSlot normalizes a slot name. "snack" is accepted as an alias of "snacks".
func ParseSlot(raw string) (MealSlot, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "breakfast":
		return SlotBreakfast, true
	case "lunch":
		return SlotLunch, true
	case "snacks", "snack":
		return SlotSnacks, true
	case "dinner":
		return SlotDinner, true
	default:
		return "", false
	}
}

// DietType classifies a prepared meal. It is part of the catalog entry, not a user choice.
type DietType string

const (
	DietVeg    DietType = "veg"
	DietNonVeg DietType = "non-veg"
)

// DietPreference is the user-facing filter applied to a catalog before display.
type DietPreference string

const (
	PreferVeg    DietPreference = "veg"
	PreferNonVeg DietPreference = "non-veg"
	PreferBoth   DietPreference = "both"
)

// ParseDietPreference returns the preference and whether the value was recognized.
// Unrecognized values map to PreferBoth.
func ParseDietPreference(raw string) (DietPreference, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "veg":
		return PreferVeg, true
	case "non-veg", "nonveg", "non_veg":
		return PreferNonVeg, true
	case "both":
		return PreferBoth, true
	default:
		return PreferBoth, false
	}
}

// Kind tells which of the three diet-plan flows a catalog belongs to.
type Kind string

const (
	KindState   Kind = "state"
	KindCountry Kind = "country"
	KindGeneric Kind = "generic"
)

// NutritionFact is the nutrition profile of one prepared meal or raw food.
// Prepared meals carry per-serving values, raw foods carry per-100g values.
type NutritionFact struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ProteinG    float64  `json:"protein_g"`
	CarbsG      float64  `json:"carbs_g"`
	FatG        float64  `json:"fat_g"`
	Calories    float64  `json:"calories"`
	DietType    DietType `json:"diet_type,omitempty"`
}

// Catalog is one region's static meal list grouped by slot.
type Catalog struct {
	ID    string
	Name  string
	Kind  Kind
	Meals map[MealSlot][]NutritionFact

	index map[string]NutritionFact
}

// MealCount returns the number of entries across all slots.
func (c *Catalog) MealCount() int {
	n := 0
	for _, meals := range c.Meals {
		n += len(meals)
	}
	return n
}

// Grams is a numeric nutrition amount that accepts both numbers and
// strings such as "12g" or "180 kcal" in catalog files.
type Grams float64

// UnmarshalTOML implements toml.Unmarshaler.
func (g *Grams) UnmarshalTOML(v interface{}) error {
	switch val := v.(type) {
	case int64:
		*g = Grams(val)
	case float64:
		*g = Grams(val)
	case string:
		*g = Grams(parseAmount(val))
	default:
		return fmt.Errorf("unsupported amount type %T", v)
	}
	return nil
}

// parseAmount extracts the leading number from values like "12g", "12.5 g", "180kcal".
// Anything unparseable counts as zero.
func parseAmount(raw string) float64 {
	s := strings.TrimSpace(strings.ToLower(raw))
	end := 0
	for end < len(s) && (s[end] == '.' || s[end] == '-' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}
