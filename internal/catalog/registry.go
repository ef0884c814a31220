package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed data/catalog.toml
var embeddedCatalog []byte

var ErrCatalogNotFound = errors.New("catalog not found")

// Registry holds every regional catalog and the raw-food table. Read-only after load.
type Registry struct {
	catalogs []*Catalog
	byID     map[string]*Catalog
	foods    FoodTable
}

type fileDoc struct {
	Catalogs []catalogRecord `toml:"catalogs"`
	Foods    []foodRecord    `toml:"foods"`
}

type catalogRecord struct {
	ID        string       `toml:"id"`
	Name      string       `toml:"name"`
	Kind      string       `toml:"kind"`
	Breakfast []mealRecord `toml:"breakfast"`
	Lunch     []mealRecord `toml:"lunch"`
	Snacks    []mealRecord `toml:"snacks"`
	Dinner    []mealRecord `toml:"dinner"`
}

type mealRecord struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Calories    Grams  `toml:"calories"`
	Protein     Grams  `toml:"protein"`
	Carbs       Grams  `toml:"carbs"`
	Fat         Grams  `toml:"fat"`
	DietType    string `toml:"diet_type"`
}

type foodRecord struct {
	Name            string `toml:"name"`
	ProteinPer100g  Grams  `toml:"protein_per_100g"`
	CarbPer100g     Grams  `toml:"carb_per_100g"`
	FatPer100g      Grams  `toml:"fat_per_100g"`
	CaloriesPer100g Grams  `toml:"calories_per_100g"`
}

// Load reads catalogs from path, or the embedded default data when path is empty.
func Load(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(embeddedCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// MustLoadDefault returns the embedded catalog data.
func MustLoadDefault() *Registry {
	r, err := Parse(embeddedCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return r
}

// Parse decodes a TOML catalog document.
func Parse(data []byte) (*Registry, error) {
	var doc fileDoc
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	r := &Registry{
		byID: make(map[string]*Catalog, len(doc.Catalogs)),
	}

	for i, rec := range doc.Catalogs {
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			return nil, fmt.Errorf("catalogs[%d]: id is required", i)
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("catalogs[%d]: duplicate id %q", i, id)
		}

		kind := Kind(strings.ToLower(strings.TrimSpace(rec.Kind)))
		switch kind {
		case KindState, KindCountry, KindGeneric:
		case "":
			kind = KindGeneric
		default:
			return nil, fmt.Errorf("catalog %q: unknown kind %q", id, rec.Kind)
		}

		seen := make(map[string]bool)
		meals := make(map[MealSlot][]NutritionFact, len(Slots))
		for slot, records := range map[MealSlot][]mealRecord{
			SlotBreakfast: rec.Breakfast,
			SlotLunch:     rec.Lunch,
			SlotSnacks:    rec.Snacks,
			SlotDinner:    rec.Dinner,
		} {
			facts := make([]NutritionFact, 0, len(records))
			for j, m := range records {
				fact, err := m.toFact()
				if err != nil {
					return nil, fmt.Errorf("catalog %q %s[%d]: %w", id, slot, j, err)
				}
				if seen[fact.ID] {
					return nil, fmt.Errorf("catalog %q: duplicate meal id %q", id, fact.ID)
				}
				seen[fact.ID] = true
				facts = append(facts, fact)
			}
			meals[slot] = facts
		}

		name := strings.TrimSpace(rec.Name)
		if name == "" {
			name = id
		}

		c := NewCatalog(id, name, kind, meals)
		r.catalogs = append(r.catalogs, c)
		r.byID[id] = c
	}

	foods := make([]NutritionFact, 0, len(doc.Foods))
	seenFoods := make(map[string]bool, len(doc.Foods))
	for i, f := range doc.Foods {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, fmt.Errorf("foods[%d]: name is required", i)
		}
		if seenFoods[foodKey(name)] {
			return nil, fmt.Errorf("foods[%d]: duplicate food %q", i, name)
		}
		seenFoods[foodKey(name)] = true
		foods = append(foods, NutritionFact{
			ID:       name,
			Name:     name,
			ProteinG: nonNegative(f.ProteinPer100g),
			CarbsG:   nonNegative(f.CarbPer100g),
			FatG:     nonNegative(f.FatPer100g),
			Calories: nonNegative(f.CaloriesPer100g),
		})
	}
	r.foods = NewFoodTable(foods)

	return r, nil
}

func (m mealRecord) toFact() (NutritionFact, error) {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return NutritionFact{}, fmt.Errorf("name is required")
	}
	id := strings.TrimSpace(m.ID)
	if id == "" {
		id = name
	}

	var diet DietType
	switch strings.ToLower(strings.TrimSpace(m.DietType)) {
	case "veg":
		diet = DietVeg
	case "non-veg", "nonveg":
		diet = DietNonVeg
	default:
		return NutritionFact{}, fmt.Errorf("meal %q: diet_type must be veg or non-veg", name)
	}

	return NutritionFact{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(m.Description),
		ProteinG:    nonNegative(m.Protein),
		CarbsG:      nonNegative(m.Carbs),
		FatG:        nonNegative(m.Fat),
		Calories:    nonNegative(m.Calories),
		DietType:    diet,
	}, nil
}

func nonNegative(g Grams) float64 {
	if g < 0 {
		return 0
	}
	return float64(g)
}

// Catalogs returns catalogs in file order.
func (r *Registry) Catalogs() []*Catalog {
	out := make([]*Catalog, len(r.catalogs))
	copy(out, r.catalogs)
	return out
}

// Catalog returns a catalog by id.
func (r *Registry) Catalog(id string) (*Catalog, error) {
	c, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, ErrCatalogNotFound
	}
	return c, nil
}

// Foods returns the raw-food table.
func (r *Registry) Foods() FoodTable {
	return r.foods
}
