package handler

import (
	"net/http"

	"dsatrack/internal/api/middleware"
	"dsatrack/internal/app/service"
	"dsatrack/internal/common"
	"dsatrack/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

func (h *LeaderboardHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/", h.get)
}

func (h *LeaderboardHandler) get(w http.ResponseWriter, r *http.Request) {
	period := repository.LeaderboardPeriod(r.URL.Query().Get("period"))
	if period == "" {
		period = repository.PeriodAllTime
	}
	resp, err := h.leaderboardService.Get(r.Context(), period)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
