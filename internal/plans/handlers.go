package plans

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/userctx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGet handles GET /v1/plans/{catalog}?diet=
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ownerUserID := userctx.OwnerID(r.Context())

	resp, err := h.service.Get(r.Context(), ownerUserID, r.PathValue("catalog"), r.URL.Query().Get("diet"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleToggle handles POST /v1/plans/{catalog}/toggle
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	ownerUserID := userctx.OwnerID(r.Context())

	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	resp, err := h.service.Toggle(r.Context(), ownerUserID, r.PathValue("catalog"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleReset handles DELETE /v1/plans/{catalog}
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ownerUserID := userctx.OwnerID(r.Context())

	if err := h.service.Reset(r.Context(), ownerUserID, r.PathValue("catalog")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", strings.TrimPrefix(err.Error(), ErrValidation.Error()+": "))
	case errors.Is(err, catalog.ErrCatalogNotFound):
		writeError(w, http.StatusNotFound, "catalog_not_found", "Catalog not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
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
