package plans

import (
	"context"
	"fmt"
	"strings"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/metrics"
	"github.com/fdg312/diet-planner/internal/planner"
	"github.com/fdg312/diet-planner/internal/snapshots"
)

// CatalogSource resolves catalogs by id. *catalog.Registry implements it.
type CatalogSource interface {
	Catalog(id string) (*catalog.Catalog, error)
}

// Service is the single composer behind the state, country and generic diet-plan flows.
type Service struct {
	catalogs CatalogSource
	repo     *snapshots.Repository
	metrics  *metrics.Manager
}

func NewService(catalogs CatalogSource, repo *snapshots.Repository, m *metrics.Manager) *Service {
	return &Service{
		catalogs: catalogs,
		repo:     repo,
		metrics:  m,
	}
}

// Get returns the saved selection, its totals and the diet-filtered catalog.
func (s *Service) Get(ctx context.Context, ownerUserID, catalogID, diet string) (PlanResponse, error) {
	c, sel, err := s.Selection(ctx, ownerUserID, catalogID)
	if err != nil {
		return PlanResponse{}, err
	}

	pref, _ := catalog.ParseDietPreference(diet)

	meals := make(map[catalog.MealSlot][]MealView, len(catalog.Slots))
	for _, slot := range catalog.Slots {
		filtered := catalog.FilterByDietType(catalog.MealsBySlot(c, slot), string(pref))
		views := make([]MealView, 0, len(filtered))
		for _, m := range filtered {
			views = append(views, MealView{NutritionFact: m, Selected: sel.Contains(slot, m.ID)})
		}
		meals[slot] = views
	}

	return PlanResponse{
		CatalogID:     c.ID,
		CatalogName:   c.Name,
		Kind:          c.Kind,
		Diet:          pref,
		Selection:     sel,
		SelectedCount: sel.Count(),
		Totals:        planner.ComputeTotals(sel, c).Rounded(),
		Meals:         meals,
	}, nil
}

// Selection loads the stored selection of a catalog.
func (s *Service) Selection(ctx context.Context, ownerUserID, catalogID string) (*catalog.Catalog, planner.SelectionSet, error) {
	c, err := s.catalogs.Catalog(catalogID)
	if err != nil {
		return nil, nil, err
	}

	sel, err := snapshots.Load(ctx, s.repo, ownerUserID, snapshots.MealSelectionKey(c.ID), planner.NewSelectionSet())
	if err != nil {
		return nil, nil, err
	}
	if sel == nil {
		sel = planner.NewSelectionSet()
	}
	return c, sel, nil
}

// Toggle flips one meal and persists the result. Meal ids unknown to the catalog
// are stored as-is and contribute nothing to totals.
func (s *Service) Toggle(ctx context.Context, ownerUserID, catalogID string, req ToggleRequest) (SelectionResponse, error) {
	slot, ok := catalog.ParseSlot(req.Slot)
	if !ok {
		return SelectionResponse{}, fmt.Errorf("%w: slot must be one of breakfast, lunch, snacks, dinner", ErrValidation)
	}
	mealID := strings.TrimSpace(req.MealID)
	if mealID == "" {
		return SelectionResponse{}, fmt.Errorf("%w: meal_id is required", ErrValidation)
	}

	c, sel, err := s.Selection(ctx, ownerUserID, catalogID)
	if err != nil {
		return SelectionResponse{}, err
	}

	next := planner.ToggleSelection(sel, slot, mealID)
	if err := snapshots.Save(ctx, s.repo, ownerUserID, snapshots.MealSelectionKey(c.ID), next); err != nil {
		return SelectionResponse{}, err
	}

	selected := next.Contains(slot, mealID)
	if s.metrics != nil {
		action := "remove"
		if selected {
			action = "add"
		}
		s.metrics.CounterToggles.WithLabelValues("meal", action).Inc()
	}

	return SelectionResponse{
		CatalogID: c.ID,
		Selected:  selected,
		Selection: next,
		Totals:    planner.ComputeTotals(next, c).Rounded(),
	}, nil
}

// Reset clears the catalog's selection.
func (s *Service) Reset(ctx context.Context, ownerUserID, catalogID string) error {
	c, err := s.catalogs.Catalog(catalogID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, ownerUserID, snapshots.MealSelectionKey(c.ID))
}
