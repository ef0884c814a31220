package planner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/diet-planner/internal/catalog"
)

func testCatalog() *catalog.Catalog {
	return catalog.NewCatalog("test", "Test", catalog.KindState, map[catalog.MealSlot][]catalog.NutritionFact{
		catalog.SlotBreakfast: {
			{ID: "Idli", Name: "Idli", ProteinG: 12, Calories: 180, CarbsG: 30, FatG: 2, DietType: catalog.DietVeg},
			{ID: "Egg Dosa", Name: "Egg Dosa", ProteinG: 13, Calories: 260, DietType: catalog.DietNonVeg},
		},
		catalog.SlotLunch: {
			{ID: "Rajma Chawal", Name: "Rajma Chawal", ProteinG: 17, Calories: 450, DietType: catalog.DietVeg},
		},
		catalog.SlotSnacks: {
			{ID: "Sundal", Name: "Sundal", ProteinG: 8, Calories: 150, DietType: catalog.DietVeg},
		},
		catalog.SlotDinner: {
			{ID: "Chicken Soup", Name: "Chicken Soup", ProteinG: 30, Calories: 300, DietType: catalog.DietNonVeg},
		},
	})
}

func testFoods() catalog.FoodTable {
	return catalog.NewFoodTable([]catalog.NutritionFact{
		{ID: "Paneer", Name: "Paneer", ProteinG: 18, CarbsG: 1.2, FatG: 20.8, Calories: 265},
		{ID: "Egg", Name: "Egg", ProteinG: 13, CarbsG: 1.1, FatG: 11, Calories: 155},
	})
}

func TestToggleSelectionAddsAndRemoves(t *testing.T) {
	empty := NewSelectionSet()

	added := ToggleSelection(empty, catalog.SlotBreakfast, "Idli")
	assert.True(t, added.Contains(catalog.SlotBreakfast, "Idli"))
	assert.False(t, empty.Contains(catalog.SlotBreakfast, "Idli"), "input must not be modified")

	removed := ToggleSelection(added, catalog.SlotBreakfast, "Idli")
	assert.False(t, removed.Contains(catalog.SlotBreakfast, "Idli"))
	assert.True(t, added.Contains(catalog.SlotBreakfast, "Idli"), "input must not be modified")
}

func TestToggleSelectionDoubleToggleIsIdentity(t *testing.T) {
	base := NewSelectionSet()
	base = ToggleSelection(base, catalog.SlotBreakfast, "Idli")
	base = ToggleSelection(base, catalog.SlotLunch, "Rajma Chawal")

	cases := []struct {
		slot catalog.MealSlot
		id   string
	}{
		{catalog.SlotBreakfast, "Idli"},
		{catalog.SlotBreakfast, "Egg Dosa"},
		{catalog.SlotDinner, "Chicken Soup"},
		{catalog.SlotSnacks, "not-in-catalog"},
	}

	for _, tc := range cases {
		twice := ToggleSelection(ToggleSelection(base, tc.slot, tc.id), tc.slot, tc.id)
		assert.True(t, base.Equal(twice), "double toggle of %s/%s", tc.slot, tc.id)
	}
}

func TestToggleSelectionIgnoresUnknownSlotAndBlankID(t *testing.T) {
	base := ToggleSelection(NewSelectionSet(), catalog.SlotLunch, "Rajma Chawal")

	assert.True(t, base.Equal(ToggleSelection(base, catalog.MealSlot("brunch"), "Idli")))
	assert.True(t, base.Equal(ToggleSelection(base, catalog.SlotLunch, "  ")))
}

func TestComputeTotalsSingleSelection(t *testing.T) {
	sel := ToggleSelection(NewSelectionSet(), catalog.SlotBreakfast, "Idli")

	totals := ComputeTotals(sel, testCatalog())
	assert.Equal(t, 12.0, totals.ProteinG)
	assert.Equal(t, 180.0, totals.Calories)
}

func TestComputeTotalsAdditive(t *testing.T) {
	c := testCatalog()
	a := ToggleSelection(NewSelectionSet(), catalog.SlotBreakfast, "Idli")
	a = ToggleSelection(a, catalog.SlotLunch, "Rajma Chawal")
	b := ToggleSelection(NewSelectionSet(), catalog.SlotDinner, "Chicken Soup")
	b = ToggleSelection(b, catalog.SlotSnacks, "Sundal")

	union := a.Clone()
	for slot, ids := range b {
		for _, id := range ids {
			union = ToggleSelection(union, slot, id)
		}
	}

	ta, tb, tu := ComputeTotals(a, c), ComputeTotals(b, c), ComputeTotals(union, c)
	assert.InDelta(t, ta.ProteinG+tb.ProteinG, tu.ProteinG, 1e-9)
	assert.InDelta(t, ta.Calories+tb.Calories, tu.Calories, 1e-9)
}

func TestComputeTotalsSkipsMissingIDs(t *testing.T) {
	c := testCatalog()
	sel := ToggleSelection(NewSelectionSet(), catalog.SlotBreakfast, "Idli")
	withGhost := ToggleSelection(sel, catalog.SlotDinner, "Removed Dish")

	assert.Equal(t, ComputeTotals(sel, c), ComputeTotals(withGhost, c))
}

func TestComputeTotalsEmptyAndNilCatalog(t *testing.T) {
	assert.Equal(t, AggregateTotals{}, ComputeTotals(NewSelectionSet(), testCatalog()))

	sel := ToggleSelection(NewSelectionSet(), catalog.SlotBreakfast, "Idli")
	assert.Equal(t, AggregateTotals{}, ComputeTotals(sel, nil))
	assert.Equal(t, AggregateTotals{}, ComputeTotals(nil, testCatalog()))
}

func TestScaleByQuantityPaneer(t *testing.T) {
	paneer, ok := testFoods().Lookup("paneer")
	require.True(t, ok)

	scaled := ScaleByQuantity(paneer, 150)
	assert.Equal(t, 27.0, scaled.ProteinG)
	assert.Equal(t, 398.0, scaled.Calories)
	assert.Equal(t, 1.8, scaled.CarbsG)
	assert.Equal(t, 31.2, scaled.FatG)
	assert.Equal(t, "Paneer", scaled.Name)
}

func TestScaleByQuantityLinear(t *testing.T) {
	egg, ok := testFoods().Lookup("Egg")
	require.True(t, ok)

	pairs := [][2]float64{{50, 50}, {33, 67}, {12.5, 87.5}, {150, 250}}
	for _, p := range pairs {
		sum := ScaleByQuantity(egg, p[0]+p[1])
		a, b := ScaleByQuantity(egg, p[0]), ScaleByQuantity(egg, p[1])

		assert.InDelta(t, sum.ProteinG, a.ProteinG+b.ProteinG, 0.2, "protein %v+%v", p[0], p[1])
		assert.InDelta(t, sum.Calories, a.Calories+b.Calories, 1.5, "calories %v+%v", p[0], p[1])
	}
}

func TestComputeCalculatorTotals(t *testing.T) {
	entries := []CalculatorEntry{
		{Food: "Paneer", QuantityGrams: 150},
		{Food: "Egg", QuantityGrams: 100},
		{Food: "Dragon Fruit", QuantityGrams: 100},
		{Food: "Egg", QuantityGrams: 0},
	}

	totals := ComputeCalculatorTotals(entries, testFoods())
	assert.InDelta(t, 40.0, totals.ProteinG, 1e-9)
	assert.InDelta(t, 553.0, totals.Calories, 1e-9)

	rows := ScaleEntries(entries, testFoods())
	require.Len(t, rows, 4)
	assert.True(t, rows[0].Known)
	assert.False(t, rows[2].Known)
	assert.Equal(t, 0.0, rows[3].Scaled.ProteinG)
}

func TestToggleID(t *testing.T) {
	ids := []string{"a", "b"}

	assert.Equal(t, []string{"a", "b", "c"}, ToggleID(ids, "c"))
	assert.Equal(t, []string{"b"}, ToggleID(ids, "a"))
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestSelectionSetJSON(t *testing.T) {
	sel := ToggleSelection(NewSelectionSet(), catalog.SlotSnacks, "Sundal")

	data, err := json.Marshal(sel)
	require.NoError(t, err)
	assert.JSONEq(t, `{"breakfast":[],"lunch":[],"snacks":["Sundal"],"dinner":[]}`, string(data))

	var decoded SelectionSet
	require.NoError(t, json.Unmarshal([]byte(`{"snack":["Sundal","Sundal"," "],"brunch":["x"]}`), &decoded))
	assert.Equal(t, []string{"Sundal"}, decoded[catalog.SlotSnacks])
	assert.Equal(t, 1, decoded.Count())
	assert.Empty(t, decoded[catalog.SlotDinner])
}
