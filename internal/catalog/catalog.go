package catalog

import "strings"

// MealsBySlot returns a copy of a slot's entries in declaration order.
func MealsBySlot(c *Catalog, slot MealSlot) []NutritionFact {
	if c == nil || len(c.Meals[slot]) == 0 {
		return nil
	}
	out := make([]NutritionFact, len(c.Meals[slot]))
	copy(out, c.Meals[slot])
	return out
}

// FilterByDietType keeps the meals matching the preference.
// "both" and any unrecognized preference return the input unchanged.
func FilterByDietType(meals []NutritionFact, preference string) []NutritionFact {
	pref, _ := ParseDietPreference(preference)

	var want DietType
	switch pref {
	case PreferVeg:
		want = DietVeg
	case PreferNonVeg:
		want = DietNonVeg
	default:
		return meals
	}

	filtered := make([]NutritionFact, 0, len(meals))
	for _, m := range meals {
		if m.DietType == want {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// Lookup finds a meal by identifier across all slots.
func (c *Catalog) Lookup(id string) (NutritionFact, bool) {
	if c == nil {
		return NutritionFact{}, false
	}
	if c.index != nil {
		fact, ok := c.index[id]
		return fact, ok
	}
	for _, slot := range Slots {
		for _, m := range c.Meals[slot] {
			if m.ID == id {
				return m, true
			}
		}
	}
	return NutritionFact{}, false
}

// NewCatalog builds an indexed catalog. Meals are kept as given.
func NewCatalog(id, name string, kind Kind, meals map[MealSlot][]NutritionFact) *Catalog {
	c := &Catalog{
		ID:    id,
		Name:  name,
		Kind:  kind,
		Meals: meals,
	}
	c.index = make(map[string]NutritionFact, c.MealCount())
	for _, slot := range Slots {
		for _, m := range meals[slot] {
			c.index[m.ID] = m
		}
	}
	return c
}

// FoodTable is the raw-food nutrition table, values per 100 g.
type FoodTable struct {
	foods []NutritionFact
	byKey map[string]int
}

// NewFoodTable builds a table keeping the given order.
func NewFoodTable(foods []NutritionFact) FoodTable {
	t := FoodTable{
		foods: make([]NutritionFact, len(foods)),
		byKey: make(map[string]int, len(foods)),
	}
	copy(t.foods, foods)
	for i, f := range t.foods {
		t.byKey[foodKey(f.Name)] = i
	}
	return t
}

// Lookup finds a food by name, case-insensitively.
func (t FoodTable) Lookup(name string) (NutritionFact, bool) {
	i, ok := t.byKey[foodKey(name)]
	if !ok {
		return NutritionFact{}, false
	}
	return t.foods[i], true
}

// All returns foods in declaration order.
func (t FoodTable) All() []NutritionFact {
	out := make([]NutritionFact, len(t.foods))
	copy(out, t.foods)
	return out
}

// Search returns foods whose name contains query (case-insensitive).
func (t FoodTable) Search(query string) []NutritionFact {
	q := foodKey(query)
	if q == "" {
		return t.All()
	}
	var out []NutritionFact
	for _, f := range t.foods {
		if strings.Contains(foodKey(f.Name), q) {
			out = append(out, f)
		}
	}
	return out
}

// Len returns the number of foods.
func (t FoodTable) Len() int {
	return len(t.foods)
}

func foodKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
