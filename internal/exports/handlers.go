package exports

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/userctx"
	"github.com/google/uuid"
)

// Handlers handles HTTP requests for plan exports
type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleCreate handles POST /v1/exports
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON")
		return
	}

	rec, err := h.service.Create(r.Context(), userctx.OwnerID(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.service.toDTO(r.Context(), rec, getBaseURL(r)))
}

// HandleList handles GET /v1/exports
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	recs, err := h.service.List(r.Context(), userctx.OwnerID(r.Context()), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	baseURL := getBaseURL(r)
	dtos := make([]ExportDTO, len(recs))
	for i := range recs {
		dtos[i] = h.service.toDTO(r.Context(), &recs[i], baseURL)
	}
	writeJSON(w, http.StatusOK, ExportsResponse{Exports: dtos})
}

// HandleGet handles GET /v1/exports/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Get(r.Context(), userctx.OwnerID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.toDTO(r.Context(), rec, getBaseURL(r)))
}

// HandleDownload handles GET /v1/exports/{id}/download
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	rec, data, err := h.service.Data(r.Context(), userctx.OwnerID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeAttachment(w, fmt.Sprintf("%s-plan.%s", rec.CatalogID, rec.Format), rec.Format, data)
}

// HandleDelete handles DELETE /v1/exports/{id}
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userctx.OwnerID(r.Context()), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePlanExport handles GET /v1/plans/{catalog}/export?format=
// The file is streamed back directly and nothing is stored.
func (h *Handlers) HandlePlanExport(w http.ResponseWriter, r *http.Request) {
	format := normalizeFormat(r.URL.Query().Get("format"))
	data, c, err := h.service.Render(r.Context(), userctx.OwnerID(r.Context()), r.PathValue("catalog"), format)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if h.service.metrics != nil {
		h.service.metrics.CounterExports.WithLabelValues(format, "stream").Inc()
	}
	writeAttachment(w, fmt.Sprintf("%s-plan.%s", c.ID, format), format, data)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Invalid export ID")
		return uuid.Nil, false
	}
	return id, true
}

func writeAttachment(w http.ResponseWriter, filename, format string, data []byte) {
	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, "invalid_format", "Format must be 'pdf' or 'csv'")
	case errors.Is(err, catalog.ErrCatalogNotFound):
		writeError(w, http.StatusNotFound, "catalog_not_found", "Catalog not found")
	case errors.Is(err, ErrExportNotFound):
		writeError(w, http.StatusNotFound, "export_not_found", "Export not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}
