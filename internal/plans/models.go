package plans

import (
	"errors"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/planner"
)

var ErrValidation = errors.New("validation failed")

// MealView is a catalog meal with its selection state.
type MealView struct {
	catalog.NutritionFact
	Selected bool `json:"selected"`
}

type PlanResponse struct {
	CatalogID     string                          `json:"catalog_id"`
	CatalogName   string                          `json:"catalog_name"`
	Kind          catalog.Kind                    `json:"kind"`
	Diet          catalog.DietPreference          `json:"diet"`
	Selection     planner.SelectionSet            `json:"selection"`
	SelectedCount int                             `json:"selected_count"`
	Totals        planner.AggregateTotals         `json:"totals"`
	Meals         map[catalog.MealSlot][]MealView `json:"meals"`
}

type ToggleRequest struct {
	Slot   string `json:"slot"`
	MealID string `json:"meal_id"`
}

type SelectionResponse struct {
	CatalogID string                  `json:"catalog_id"`
	Selected  bool                    `json:"selected"`
	Selection planner.SelectionSet    `json:"selection"`
	Totals    planner.AggregateTotals `json:"totals"`
}
