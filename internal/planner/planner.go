// Package planner composes meal selections and aggregates their nutrition.
// All functions are pure and never fail: unknown identifiers contribute nothing.
package planner

import (
	"math"
	"strings"

	"github.com/fdg312/diet-planner/internal/catalog"
)

// CalculatorEntry is one row of the raw-food protein calculator.
type CalculatorEntry struct {
	Food          string  `json:"food"`
	QuantityGrams float64 `json:"quantity_g"`
}

// AggregateTotals is derived from a selection and never stored.
type AggregateTotals struct {
	ProteinG float64 `json:"protein_g"`
	Calories float64 `json:"calories"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

func (t AggregateTotals) add(f catalog.NutritionFact) AggregateTotals {
	return AggregateTotals{
		ProteinG: t.ProteinG + f.ProteinG,
		Calories: t.Calories + f.Calories,
		CarbsG:   t.CarbsG + f.CarbsG,
		FatG:     t.FatG + f.FatG,
	}
}

// Rounded returns display values: grams to one decimal, calories to a whole number.
func (t AggregateTotals) Rounded() AggregateTotals {
	return AggregateTotals{
		ProteinG: round1(t.ProteinG),
		Calories: math.Round(t.Calories),
		CarbsG:   round1(t.CarbsG),
		FatG:     round1(t.FatG),
	}
}

// ToggleID removes id from ids when present, appends it otherwise. ids is not modified.
func ToggleID(ids []string, id string) []string {
	out := make([]string, 0, len(ids)+1)
	found := false
	for _, existing := range ids {
		if existing == id {
			found = true
			continue
		}
		out = append(out, existing)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

// ToggleSelection returns a copy of sel with mealID flipped in slot.
// Unknown slots and blank ids leave the copy unchanged.
func ToggleSelection(sel SelectionSet, slot catalog.MealSlot, mealID string) SelectionSet {
	out := sel.Clone()
	mealID = strings.TrimSpace(mealID)
	if mealID == "" || !isKnownSlot(slot) {
		return out
	}
	out[slot] = ToggleID(out[slot], mealID)
	return out
}

// ComputeTotals sums nutrition of every selected meal found in c.
func ComputeTotals(sel SelectionSet, c *catalog.Catalog) AggregateTotals {
	var totals AggregateTotals
	for _, slot := range catalog.Slots {
		for _, id := range sel[slot] {
			fact, ok := c.Lookup(id)
			if !ok {
				continue
			}
			totals = totals.add(fact)
		}
	}
	return totals
}

// ScaleByQuantity converts per-100 g values to grams of food.
// Macros are rounded to 0.1 g and calories to the nearest integer, half away from zero.
func ScaleByQuantity(food catalog.NutritionFact, grams float64) catalog.NutritionFact {
	factor := grams / 100
	scaled := food
	scaled.ProteinG = round1(food.ProteinG * factor)
	scaled.CarbsG = round1(food.CarbsG * factor)
	scaled.FatG = round1(food.FatG * factor)
	scaled.Calories = math.Round(food.Calories * factor)
	return scaled
}

// ScaledEntry pairs a calculator row with its scaled nutrition.
type ScaledEntry struct {
	CalculatorEntry
	Known  bool                  `json:"known"`
	Scaled catalog.NutritionFact `json:"scaled"`
}

// ScaleEntries scales every entry; unknown foods and non-positive quantities scale to zero.
func ScaleEntries(entries []CalculatorEntry, table catalog.FoodTable) []ScaledEntry {
	out := make([]ScaledEntry, 0, len(entries))
	for _, e := range entries {
		row := ScaledEntry{CalculatorEntry: e}
		food, ok := table.Lookup(e.Food)
		if ok && e.QuantityGrams > 0 {
			row.Known = true
			row.Scaled = ScaleByQuantity(food, e.QuantityGrams)
		} else {
			row.Known = ok
			row.Scaled = catalog.NutritionFact{ID: e.Food, Name: e.Food}
		}
		out = append(out, row)
	}
	return out
}

// ComputeCalculatorTotals sums the scaled nutrition of all entries.
func ComputeCalculatorTotals(entries []CalculatorEntry, table catalog.FoodTable) AggregateTotals {
	var totals AggregateTotals
	for _, row := range ScaleEntries(entries, table) {
		totals = totals.add(row.Scaled)
	}
	return totals
}

func isKnownSlot(slot catalog.MealSlot) bool {
	for _, s := range catalog.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
