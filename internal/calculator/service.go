package calculator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/metrics"
	"github.com/fdg312/diet-planner/internal/planner"
	"github.com/fdg312/diet-planner/internal/snapshots"
)

// FoodSource exposes the raw-food table. *catalog.Registry implements it.
type FoodSource interface {
	Foods() catalog.FoodTable
}

type Service struct {
	foods        FoodSource
	repo         *snapshots.Repository
	metrics      *metrics.Manager
	maxEntries   int
	maxQuantityG float64
}

func NewService(foods FoodSource, repo *snapshots.Repository, m *metrics.Manager, maxEntries int, maxQuantityG float64) *Service {
	if maxEntries <= 0 {
		maxEntries = 50
	}
	if maxQuantityG <= 0 {
		maxQuantityG = 5000
	}
	return &Service{
		foods:        foods,
		repo:         repo,
		metrics:      m,
		maxEntries:   maxEntries,
		maxQuantityG: maxQuantityG,
	}
}

// Get returns the saved entries with scaled nutrition and totals.
func (s *Service) Get(ctx context.Context, ownerUserID string) (CalculatorResponse, error) {
	entries, err := s.load(ctx, ownerUserID)
	if err != nil {
		return CalculatorResponse{}, err
	}
	return s.respond(entries), nil
}

// AddEntry validates and appends one row.
func (s *Service) AddEntry(ctx context.Context, ownerUserID string, req AddEntryRequest) (CalculatorResponse, error) {
	food, err := s.validate(req.Food, req.QuantityGrams)
	if err != nil {
		return CalculatorResponse{}, err
	}

	entries, err := s.load(ctx, ownerUserID)
	if err != nil {
		return CalculatorResponse{}, err
	}
	if len(entries) >= s.maxEntries {
		return CalculatorResponse{}, fmt.Errorf("%w: at most %d entries allowed", ErrValidation, s.maxEntries)
	}

	entries = append(entries, planner.CalculatorEntry{Food: food.Name, QuantityGrams: req.QuantityGrams})
	if err := snapshots.Save(ctx, s.repo, ownerUserID, snapshots.KeyCalculatorEntries, entries); err != nil {
		return CalculatorResponse{}, err
	}

	s.count("add")
	return s.respond(entries), nil
}

// RemoveEntry deletes the row at index.
func (s *Service) RemoveEntry(ctx context.Context, ownerUserID string, index int) (CalculatorResponse, error) {
	entries, err := s.load(ctx, ownerUserID)
	if err != nil {
		return CalculatorResponse{}, err
	}
	if index < 0 || index >= len(entries) {
		return CalculatorResponse{}, ErrEntryNotFound
	}

	next := make([]planner.CalculatorEntry, 0, len(entries)-1)
	next = append(next, entries[:index]...)
	next = append(next, entries[index+1:]...)
	if err := snapshots.Save(ctx, s.repo, ownerUserID, snapshots.KeyCalculatorEntries, next); err != nil {
		return CalculatorResponse{}, err
	}

	s.count("remove")
	return s.respond(next), nil
}

// Clear removes all rows.
func (s *Service) Clear(ctx context.Context, ownerUserID string) error {
	if err := s.repo.Delete(ctx, ownerUserID, snapshots.KeyCalculatorEntries); err != nil {
		return err
	}
	s.count("clear")
	return nil
}

// Quote computes totals for entries without storing anything.
func (s *Service) Quote(req QuoteRequest) (CalculatorResponse, error) {
	if len(req.Entries) > s.maxEntries {
		return CalculatorResponse{}, fmt.Errorf("%w: at most %d entries allowed", ErrValidation, s.maxEntries)
	}
	for i, e := range req.Entries {
		if _, err := s.validate(e.Food, e.QuantityGrams); err != nil {
			return CalculatorResponse{}, fmt.Errorf("entries[%d]: %w", i, err)
		}
	}

	s.count("quote")
	return s.respond(req.Entries), nil
}

func (s *Service) validate(foodName string, grams float64) (catalog.NutritionFact, error) {
	foodName = strings.TrimSpace(foodName)
	if foodName == "" {
		return catalog.NutritionFact{}, fmt.Errorf("%w: food is required", ErrValidation)
	}
	if math.IsNaN(grams) || grams <= 0 || grams > s.maxQuantityG {
		return catalog.NutritionFact{}, fmt.Errorf("%w: quantity_g must be in range (0, %g]", ErrValidation, s.maxQuantityG)
	}
	food, ok := s.foods.Foods().Lookup(foodName)
	if !ok {
		return catalog.NutritionFact{}, fmt.Errorf("%w: unknown food %q", ErrValidation, foodName)
	}
	return food, nil
}

func (s *Service) load(ctx context.Context, ownerUserID string) ([]planner.CalculatorEntry, error) {
	entries, err := snapshots.Load(ctx, s.repo, ownerUserID, snapshots.KeyCalculatorEntries, []planner.CalculatorEntry{})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []planner.CalculatorEntry{}
	}
	return entries, nil
}

func (s *Service) respond(entries []planner.CalculatorEntry) CalculatorResponse {
	table := s.foods.Foods()
	return CalculatorResponse{
		Entries: planner.ScaleEntries(entries, table),
		Totals:  planner.ComputeCalculatorTotals(entries, table).Rounded(),
	}
}

func (s *Service) count(op string) {
	if s.metrics != nil {
		s.metrics.CounterCalculatorCalls.WithLabelValues(op).Inc()
	}
}
