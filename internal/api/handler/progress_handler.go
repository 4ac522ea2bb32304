package handler

import (
	"encoding/json"
	"net/http"

	"dsatrack/internal/api/middleware"
	"dsatrack/internal/app/service"
	"dsatrack/internal/common"
	"dsatrack/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ProgressHandler struct {
	progressService *service.ProgressService
}

func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// Mounted under /users/{userID}/progress inside the authenticated users
// tree.
func (h *ProgressHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.toggle)
}

func (h *ProgressHandler) list(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userID")
	if !canAccessUser(r, targetID) {
		common.RespondWithError(w, http.StatusForbidden, "Cannot access another user's progress")
		return
	}
	records, err := h.progressService.ListForUser(r.Context(), targetID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, records)
}

// toggle is the manual override path, and the only way a question goes
// back to unsolved.
func (h *ProgressHandler) toggle(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userID")
	if !canAccessUser(r, targetID) {
		common.RespondWithError(w, http.StatusForbidden, "Cannot modify another user's progress")
		return
	}
	var req service.ToggleProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	record, err := h.progressService.Toggle(r.Context(), targetID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, record)
}

func canAccessUser(r *http.Request, targetID string) bool {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	role, _ := middleware.GetUserRoleFromContext(r.Context())
	return userID == targetID || role == model.RoleAdmin
}
