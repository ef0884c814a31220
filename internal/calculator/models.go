package calculator

import (
	"errors"

	"github.com/fdg312/diet-planner/internal/planner"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrEntryNotFound = errors.New("calculator entry not found")
)

type AddEntryRequest struct {
	Food          string  `json:"food"`
	QuantityGrams float64 `json:"quantity_g"`
}

type QuoteRequest struct {
	Entries []planner.CalculatorEntry `json:"entries"`
}

type CalculatorResponse struct {
	Entries []planner.ScaledEntry   `json:"entries"`
	Totals  planner.AggregateTotals `json:"totals"`
}
