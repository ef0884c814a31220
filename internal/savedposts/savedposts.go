// Package savedposts keeps the list of feed posts a user bookmarked.
package savedposts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/fdg312/diet-planner/internal/metrics"
	"github.com/fdg312/diet-planner/internal/planner"
	"github.com/fdg312/diet-planner/internal/snapshots"
	"github.com/fdg312/diet-planner/internal/userctx"
)

var ErrValidation = errors.New("validation failed")

type ToggleRequest struct {
	PostID string `json:"post_id"`
}

type SavedPostsResponse struct {
	PostIDs []string `json:"post_ids"`
}

type ToggleResponse struct {
	PostID  string   `json:"post_id"`
	Saved   bool     `json:"saved"`
	PostIDs []string `json:"post_ids"`
}

type Service struct {
	repo    *snapshots.Repository
	metrics *metrics.Manager
}

func NewService(repo *snapshots.Repository, m *metrics.Manager) *Service {
	return &Service{repo: repo, metrics: m}
}

func (s *Service) List(ctx context.Context, ownerUserID string) ([]string, error) {
	ids, err := snapshots.Load(ctx, s.repo, ownerUserID, snapshots.KeySavedPosts, []string{})
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Toggle adds postID when absent and removes it when present.
func (s *Service) Toggle(ctx context.Context, ownerUserID, postID string) (ToggleResponse, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return ToggleResponse{}, fmt.Errorf("%w: post_id is required", ErrValidation)
	}

	ids, err := s.List(ctx, ownerUserID)
	if err != nil {
		return ToggleResponse{}, err
	}
	next := planner.ToggleID(ids, postID)
	if err := snapshots.Save(ctx, s.repo, ownerUserID, snapshots.KeySavedPosts, next); err != nil {
		return ToggleResponse{}, err
	}

	saved := slices.Contains(next, postID)
	if s.metrics != nil {
		action := "remove"
		if saved {
			action = "add"
		}
		s.metrics.CounterToggles.WithLabelValues("post", action).Inc()
	}
	return ToggleResponse{PostID: postID, Saved: saved, PostIDs: next}, nil
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleList handles GET /v1/saved-posts
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.List(r.Context(), userctx.OwnerID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, SavedPostsResponse{PostIDs: ids})
}

// HandleToggle handles POST /v1/saved-posts/toggle
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	resp, err := h.service.Toggle(r.Context(), userctx.OwnerID(r.Context()), req.PostID)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			writeError(w, http.StatusBadRequest, "invalid_request", strings.Replace(err.Error(), ErrValidation.Error()+": ", "", 1))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
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
