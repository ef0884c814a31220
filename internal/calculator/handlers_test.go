package calculator

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/metrics"
	"github.com/fdg312/diet-planner/internal/planner"
	"github.com/fdg312/diet-planner/internal/snapshots"
	"github.com/fdg312/diet-planner/internal/storage/memory"
)

func newTestMux(t *testing.T, maxEntries int) (*http.ServeMux, *metrics.Manager) {
	t.Helper()
	m := metrics.NewTestManager()
	repo := snapshots.NewRepository(memory.New(), nil, m)
	h := NewHandler(NewService(catalog.MustLoadDefault(), repo, m, maxEntries, 5000))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/calculator", h.HandleGet)
	mux.HandleFunc("DELETE /v1/calculator", h.HandleClear)
	mux.HandleFunc("POST /v1/calculator/entries", h.HandleAddEntry)
	mux.HandleFunc("DELETE /v1/calculator/entries/{index}", h.HandleRemoveEntry)
	mux.HandleFunc("POST /v1/calculator/quote", h.HandleQuote)
	return mux, m
}

func do(t *testing.T, mux http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) CalculatorResponse {
	t.Helper()
	var resp CalculatorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestCalculatorAddAndTotals(t *testing.T) {
	mux, m := newTestMux(t, 10)

	w := do(t, mux, http.MethodPost, "/v1/calculator/entries", AddEntryRequest{Food: "paneer", QuantityGrams: 150})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode(t, w)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "Paneer", resp.Entries[0].Food)
	assert.Equal(t, 27.0, resp.Totals.ProteinG)
	assert.Equal(t, 398.0, resp.Totals.Calories)

	w = do(t, mux, http.MethodPost, "/v1/calculator/entries", AddEntryRequest{Food: "Egg", QuantityGrams: 100})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, mux, http.MethodGet, "/v1/calculator", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode(t, w)
	assert.Len(t, resp.Entries, 2)
	assert.Equal(t, 40.0, resp.Totals.ProteinG)
	assert.Equal(t, 553.0, resp.Totals.Calories)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterCalculatorCalls.WithLabelValues("add")))
}

func TestCalculatorValidation(t *testing.T) {
	mux, _ := newTestMux(t, 1)

	cases := []struct {
		name string
		req  AddEntryRequest
	}{
		{"zero quantity", AddEntryRequest{Food: "Egg", QuantityGrams: 0}},
		{"negative quantity", AddEntryRequest{Food: "Egg", QuantityGrams: -5}},
		{"too much", AddEntryRequest{Food: "Egg", QuantityGrams: 5001}},
		{"unknown food", AddEntryRequest{Food: "Unobtainium", QuantityGrams: 100}},
		{"blank food", AddEntryRequest{Food: "  ", QuantityGrams: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, mux, http.MethodPost, "/v1/calculator/entries", tc.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	require.Equal(t, http.StatusCreated, do(t, mux, http.MethodPost, "/v1/calculator/entries", AddEntryRequest{Food: "Egg", QuantityGrams: 50}).Code)
	w := do(t, mux, http.MethodPost, "/v1/calculator/entries", AddEntryRequest{Food: "Egg", QuantityGrams: 50})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at most 1 entries")
}

func TestCalculatorRemoveAndClear(t *testing.T) {
	mux, _ := newTestMux(t, 10)

	for _, food := range []string{"Egg", "Paneer", "Egg"} {
		require.Equal(t, http.StatusCreated, do(t, mux, http.MethodPost, "/v1/calculator/entries", AddEntryRequest{Food: food, QuantityGrams: 100}).Code)
	}

	w := do(t, mux, http.MethodDelete, "/v1/calculator/entries/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "Egg", resp.Entries[0].Food)
	assert.Equal(t, "Egg", resp.Entries[1].Food)
	assert.Equal(t, 26.0, resp.Totals.ProteinG)

	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodDelete, "/v1/calculator/entries/5", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodDelete, "/v1/calculator/entries/x", nil).Code)

	assert.Equal(t, http.StatusNoContent, do(t, mux, http.MethodDelete, "/v1/calculator", nil).Code)
	resp = decode(t, do(t, mux, http.MethodGet, "/v1/calculator", nil))
	assert.Empty(t, resp.Entries)
	assert.Equal(t, planner.AggregateTotals{}, resp.Totals)
}

func TestCalculatorQuoteIsStateless(t *testing.T) {
	mux, _ := newTestMux(t, 10)

	w := do(t, mux, http.MethodPost, "/v1/calculator/quote", QuoteRequest{Entries: []planner.CalculatorEntry{
		{Food: "Paneer", QuantityGrams: 150},
		{Food: "Egg", QuantityGrams: 100},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, 40.0, resp.Totals.ProteinG)

	resp = decode(t, do(t, mux, http.MethodGet, "/v1/calculator", nil))
	assert.Empty(t, resp.Entries)

	w = do(t, mux, http.MethodPost, "/v1/calculator/quote", QuoteRequest{Entries: []planner.CalculatorEntry{{Food: "Egg", QuantityGrams: 0}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "entries[0]")
}
