package handler

import (
	"errors"
	"net/http"

	"dsatrack/internal/api/middleware"
	appsync "dsatrack/internal/app/sync"
	"dsatrack/internal/common"

	"github.com/go-chi/chi/v5"
)

const upstreamSuggestion = "The unofficial judge APIs may be down or rate limited. Try again in a few minutes."

type SyncHandler struct {
	syncService *appsync.Service
}

func NewSyncHandler(syncService *appsync.Service) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

func (h *SyncHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.Get("/all/{userID}", h.syncAllPlatforms)
	r.Get("/{platform}/{userID}", h.syncPlatform)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.AdminOnly)
		admin.Post("/all-users", h.syncAllUsers)
	})
}

func (h *SyncHandler) syncPlatform(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userID")
	if !canAccessUser(r, targetID) {
		common.RespondWithError(w, http.StatusForbidden, "Cannot sync another user's progress")
		return
	}

	platform := appsync.Platform(chi.URLParam(r, "platform"))
	if !platform.Syncable() {
		common.RespondWithError(w, http.StatusBadRequest, "Unsupported platform: "+string(platform))
		return
	}

	result, err := h.syncService.SyncPlatform(r.Context(), targetID, platform)
	if err != nil {
		respondSyncError(w, platform, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *SyncHandler) syncAllPlatforms(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userID")
	if !canAccessUser(r, targetID) {
		common.RespondWithError(w, http.StatusForbidden, "Cannot sync another user's progress")
		return
	}
	outcomes := h.syncService.SyncAllPlatforms(r.Context(), targetID)
	common.RespondWithJSON(w, http.StatusOK, outcomes)
}

func (h *SyncHandler) syncAllUsers(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncService.SyncAllUsers(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func respondSyncError(w http.ResponseWriter, platform appsync.Platform, err error) {
	var fe *appsync.FetchError
	if errors.As(err, &fe) {
		common.RespondWithJSON(w, http.StatusServiceUnavailable, common.ErrorResponse{
			Error:      "Failed to sync " + platform.DisplayName() + " progress",
			Details:    fe.Details(),
			Suggestion: upstreamSuggestion,
		})
		return
	}
	common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
}
