package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// Scaler converts a per-100 g food into the given quantity.
// The planner package provides the implementation.
type Scaler func(food NutritionFact, grams float64) NutritionFact

// DefaultMaxScaleGrams caps /v1/foods/scale when no limit is configured.
const DefaultMaxScaleGrams = 5000

type Handler struct {
	registry *Registry
	scale    Scaler
	maxGrams float64
}

// NewHandler builds the catalog handlers. maxGrams bounds the scale quantity; <= 0 uses the default.
func NewHandler(registry *Registry, scale Scaler, maxGrams float64) *Handler {
	if maxGrams <= 0 {
		maxGrams = DefaultMaxScaleGrams
	}
	return &Handler{registry: registry, scale: scale, maxGrams: maxGrams}
}

type CatalogSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	MealCount int    `json:"meal_count"`
}

type CatalogsResponse struct {
	Catalogs []CatalogSummary `json:"catalogs"`
}

type MealsResponse struct {
	CatalogID string                       `json:"catalog_id"`
	Diet      DietPreference               `json:"diet"`
	Meals     map[MealSlot][]NutritionFact `json:"meals"`
}

type FoodsResponse struct {
	Foods []NutritionFact `json:"foods"`
}

type ScaleResponse struct {
	Food          string        `json:"food"`
	QuantityGrams float64       `json:"quantity_g"`
	Scaled        NutritionFact `json:"scaled"`
}

// HandleList handles GET /v1/catalogs
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	kind := Kind(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("kind"))))

	resp := CatalogsResponse{Catalogs: []CatalogSummary{}}
	for _, c := range h.registry.Catalogs() {
		if kind != "" && c.Kind != kind {
			continue
		}
		resp.Catalogs = append(resp.Catalogs, CatalogSummary{
			ID:        c.ID,
			Name:      c.Name,
			Kind:      c.Kind,
			MealCount: c.MealCount(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleMeals handles GET /v1/catalogs/{id}/meals
func (h *Handler) HandleMeals(w http.ResponseWriter, r *http.Request) {
	c, err := h.registry.Catalog(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrCatalogNotFound) {
			writeError(w, http.StatusNotFound, "catalog_not_found", "Catalog not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	query := r.URL.Query()
	diet, _ := ParseDietPreference(query.Get("diet"))

	slots := Slots
	if raw := strings.TrimSpace(query.Get("slot")); raw != "" {
		slot, ok := ParseSlot(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_slot", "slot must be one of breakfast, lunch, snacks, dinner")
			return
		}
		slots = []MealSlot{slot}
	}

	resp := MealsResponse{
		CatalogID: c.ID,
		Diet:      diet,
		Meals:     make(map[MealSlot][]NutritionFact, len(slots)),
	}
	for _, slot := range slots {
		meals := FilterByDietType(MealsBySlot(c, slot), string(diet))
		if meals == nil {
			meals = []NutritionFact{}
		}
		resp.Meals[slot] = meals
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleFoods handles GET /v1/foods
func (h *Handler) HandleFoods(w http.ResponseWriter, r *http.Request) {
	foods := h.registry.Foods().Search(r.URL.Query().Get("q"))
	if foods == nil {
		foods = []NutritionFact{}
	}
	writeJSON(w, http.StatusOK, FoodsResponse{Foods: foods})
}

// HandleScale handles GET /v1/foods/scale?food=&grams=
func (h *Handler) HandleScale(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	name := strings.TrimSpace(query.Get("food"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "food is required")
		return
	}

	grams, err := strconv.ParseFloat(strings.TrimSpace(query.Get("grams")), 64)
	if err != nil || grams <= 0 || math.IsNaN(grams) {
		writeError(w, http.StatusBadRequest, "invalid_quantity", "grams must be a positive number")
		return
	}
	if grams > h.maxGrams {
		writeError(w, http.StatusBadRequest, "invalid_quantity",
			fmt.Sprintf("grams must be at most %s", strconv.FormatFloat(h.maxGrams, 'f', -1, 64)))
		return
	}

	food, ok := h.registry.Foods().Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "food_not_found", "Food not found")
		return
	}

	writeJSON(w, http.StatusOK, ScaleResponse{
		Food:          food.Name,
		QuantityGrams: grams,
		Scaled:        h.scale(food, grams),
	})
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
