package handler

import (
	"net/http"

	"dsatrack/internal/app/service"
	"dsatrack/internal/common"

	"github.com/go-chi/chi/v5"
)

type BookmarkHandler struct {
	bookmarkService *service.BookmarkService
}

func NewBookmarkHandler(bookmarkService *service.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{bookmarkService: bookmarkService}
}

// Mounted under /users/{userID}/bookmarks inside the authenticated users
// tree.
func (h *BookmarkHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/{questionID}", h.toggle)
}

// list returns a set keyed by question id so the client can probe
// membership without scanning.
func (h *BookmarkHandler) list(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userID")
	if !canAccessUser(r, targetID) {
		common.RespondWithError(w, http.StatusForbidden, "Cannot access another user's bookmarks")
		return
	}
	ids, err := h.bookmarkService.ListForUser(r.Context(), targetID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	bookmarks := make(map[string]bool, len(ids))
	for _, id := range ids {
		bookmarks[id] = true
	}
	common.RespondWithJSON(w, http.StatusOK, bookmarks)
}

func (h *BookmarkHandler) toggle(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userID")
	if !canAccessUser(r, targetID) {
		common.RespondWithError(w, http.StatusForbidden, "Cannot modify another user's bookmarks")
		return
	}
	resp, err := h.bookmarkService.Toggle(r.Context(), targetID, chi.URLParam(r, "questionID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
