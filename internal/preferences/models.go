package preferences

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fdg312/diet-planner/internal/catalog"
)

var ErrValidation = errors.New("validation failed")

type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

// grams of protein per kg of body weight
var proteinFactors = map[Goal]float64{
	GoalLose:     1.6,
	GoalMaintain: 1.2,
	GoalGain:     2.0,
}

const (
	minWeightKg = 20
	maxWeightKg = 400
)

// PreferencesDTO is the saved user state: last catalog, diet filter and goal.
type PreferencesDTO struct {
	CatalogID string  `json:"catalog_id"`
	Diet      string  `json:"diet"`
	Goal      Goal    `json:"goal"`
	WeightKg  float64 `json:"weight_kg"`
}

type PreferencesResponse struct {
	Preferences    PreferencesDTO `json:"preferences"`
	ProteinTargetG float64        `json:"protein_target_g"`
	IsDefault      bool           `json:"is_default"`
}

func defaults() PreferencesDTO {
	return PreferencesDTO{
		Diet: string(catalog.PreferBoth),
		Goal: GoalMaintain,
	}
}

// Normalize trims fields and fills empty ones with defaults.
func (p PreferencesDTO) Normalize() PreferencesDTO {
	p.CatalogID = strings.TrimSpace(p.CatalogID)
	p.Diet = strings.ToLower(strings.TrimSpace(p.Diet))
	if p.Diet == "" {
		p.Diet = string(catalog.PreferBoth)
	}
	if diet, ok := catalog.ParseDietPreference(p.Diet); ok {
		p.Diet = string(diet)
	}
	p.Goal = Goal(strings.ToLower(strings.TrimSpace(string(p.Goal))))
	if p.Goal == "" {
		p.Goal = GoalMaintain
	}
	return p
}

func (p PreferencesDTO) Validate() error {
	if _, ok := catalog.ParseDietPreference(p.Diet); !ok {
		return fmt.Errorf("%w: diet must be one of both, veg, non-veg", ErrValidation)
	}
	if _, ok := proteinFactors[p.Goal]; !ok {
		return fmt.Errorf("%w: goal must be one of lose, maintain, gain", ErrValidation)
	}
	if math.IsNaN(p.WeightKg) || p.WeightKg < 0 || (p.WeightKg > 0 && (p.WeightKg < minWeightKg || p.WeightKg > maxWeightKg)) {
		return fmt.Errorf("%w: weight_kg must be 0 or in range %d..%d", ErrValidation, minWeightKg, maxWeightKg)
	}
	return nil
}

// ProteinTarget is the daily protein goal in grams, 0 when weight is unknown.
func (p PreferencesDTO) ProteinTarget() float64 {
	if p.WeightKg <= 0 {
		return 0
	}
	return math.Round(p.WeightKg*proteinFactors[p.Goal]*10) / 10
}
