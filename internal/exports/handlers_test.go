package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/diet-planner/internal/blob"
	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/metrics"
	"github.com/fdg312/diet-planner/internal/plans"
	"github.com/fdg312/diet-planner/internal/snapshots"
	"github.com/fdg312/diet-planner/internal/storage/memory"
	"github.com/fdg312/diet-planner/internal/userctx"
)

type testEnv struct {
	mux     *http.ServeMux
	plans   *plans.Service
	metrics *metrics.Manager
}

func setupTestEnv(t *testing.T, store blob.Store) testEnv {
	t.Helper()
	mem := memory.New()
	m := metrics.NewTestManager()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	planService := plans.NewService(catalog.MustLoadDefault(), snapshots.NewRepository(mem, logger, m), m)
	service := NewService(mem.Exports(), planService, store, Options{ListLimit: 10}, m, logger)
	h := NewHandlers(service)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/exports", h.HandleCreate)
	mux.HandleFunc("GET /v1/exports", h.HandleList)
	mux.HandleFunc("GET /v1/exports/{id}", h.HandleGet)
	mux.HandleFunc("GET /v1/exports/{id}/download", h.HandleDownload)
	mux.HandleFunc("DELETE /v1/exports/{id}", h.HandleDelete)
	mux.HandleFunc("GET /v1/plans/{catalog}/export", h.HandlePlanExport)

	return testEnv{mux: mux, plans: planService, metrics: m}
}

func (e testEnv) selectMeal(t *testing.T, owner, catalogID, slot, mealID string) {
	t.Helper()
	_, err := e.plans.Toggle(context.Background(), owner, catalogID, plans.ToggleRequest{Slot: slot, MealID: mealID})
	require.NoError(t, err)
}

func (e testEnv) do(method, path, owner string, body []byte) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, bytes.NewReader(body))
	if owner != "" {
		r = r.WithContext(userctx.WithUserID(r.Context(), owner))
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, r)
	return w
}

func TestPlanExportStreamsCSV(t *testing.T) {
	env := setupTestEnv(t, nil)
	env.selectMeal(t, userctx.DefaultOwnerID, "tamil-nadu", "breakfast", "Idli")

	w := env.do(http.MethodGet, "/v1/plans/tamil-nadu/export?format=csv", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "tamil-nadu-plan.csv")

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"slot", "meal", "diet_type", "protein_g", "carbs_g", "fat_g", "calories"}, records[0])
	assert.Equal(t, "breakfast", records[1][0])
	assert.Equal(t, "Idli", records[1][1])
	assert.Equal(t, "12", records[1][3])
	assert.Equal(t, "total", records[2][0])
	assert.Equal(t, "180", records[2][6])

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CounterExports.WithLabelValues("csv", "stream")))
}

func TestPlanExportPDFDefault(t *testing.T) {
	env := setupTestEnv(t, nil)

	w := env.do(http.MethodGet, "/v1/plans/japan/export", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestPlanExportErrors(t *testing.T) {
	env := setupTestEnv(t, nil)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/v1/plans/japan/export?format=xlsx", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/v1/plans/atlantis/export?format=csv", "", nil).Code)
}

func TestExportsLocalModeLifecycle(t *testing.T) {
	env := setupTestEnv(t, nil)
	env.selectMeal(t, "user-a", "punjab", "snacks", "Lassi")

	body, _ := json.Marshal(CreateExportRequest{CatalogID: "punjab", Format: FormatCSV})
	w := env.do(http.MethodPost, "/v1/exports", "user-a", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var dto ExportDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
	assert.Equal(t, "punjab", dto.CatalogID)
	assert.Greater(t, dto.SizeBytes, int64(0))
	assert.Equal(t, "http://example.com/v1/exports/"+dto.ID.String()+"/download", dto.DownloadURL)

	w = env.do(http.MethodGet, "/v1/exports/"+dto.ID.String()+"/download", "user-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Lassi")

	// other owners cannot see it
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/v1/exports/"+dto.ID.String(), "user-b", nil).Code)

	w = env.do(http.MethodGet, "/v1/exports", "user-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list ExportsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Exports, 1)
	assert.Equal(t, dto.ID, list.Exports[0].ID)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/v1/exports/"+dto.ID.String(), "user-a", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/v1/exports/"+dto.ID.String(), "user-a", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/v1/exports/not-a-uuid", "user-a", nil).Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CounterExports.WithLabelValues("csv", "local")))
}

func TestExportsBlobModeUploadsObject(t *testing.T) {
	store := blob.NewMemoryStore("https://cdn.example.com")
	env := setupTestEnv(t, store)

	body, _ := json.Marshal(CreateExportRequest{CatalogID: "italy", Format: FormatPDF})
	w := env.do(http.MethodPost, "/v1/exports", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var dto ExportDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
	assert.Equal(t, 1, store.Len())
	assert.True(t, strings.HasPrefix(dto.DownloadURL, "https://cdn.example.com/"), dto.DownloadURL)
	assert.Contains(t, dto.DownloadURL, "ttl=900")

	w = env.do(http.MethodGet, "/v1/exports/"+dto.ID.String()+"/download", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	require.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/v1/exports/"+dto.ID.String(), "", nil).Code)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CounterExports.WithLabelValues("pdf", "s3")))
}

func TestExportsBlobKeyEscapesOwner(t *testing.T) {
	store := blob.NewMemoryStore("")
	env := setupTestEnv(t, store)

	owner := "a/../b"
	body, _ := json.Marshal(CreateExportRequest{CatalogID: "punjab", Format: FormatCSV})
	w := env.do(http.MethodPost, "/v1/exports", owner, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var dto ExportDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))

	_, err := store.GetObject(context.Background(), "exports/a%2F..%2Fb/"+dto.ID.String()+".csv")
	require.NoError(t, err)
	_, err = store.GetObject(context.Background(), "exports/a/../b/"+dto.ID.String()+".csv")
	assert.ErrorIs(t, err, blob.ErrObjectNotFound)

	w = env.do(http.MethodGet, "/v1/exports/"+dto.ID.String()+"/download", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "slot,meal"))
}

func TestBuildDocumentSkipsUnknownMeals(t *testing.T) {
	reg := catalog.MustLoadDefault()
	c, err := reg.Catalog("tamil-nadu")
	require.NoError(t, err)

	env := setupTestEnv(t, nil)
	env.selectMeal(t, "u", "tamil-nadu", "breakfast", "Idli")
	env.selectMeal(t, "u", "tamil-nadu", "breakfast", "Ghost")
	_, sel, err := env.plans.Selection(context.Background(), "u", "tamil-nadu")
	require.NoError(t, err)

	doc := BuildDocument(c, sel, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "Idli", doc.Rows[0].Meal.Name)
	assert.Equal(t, 12.0, doc.Totals.ProteinG)
}
