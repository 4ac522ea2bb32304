package handler

import (
	"encoding/json"
	"net/http"

	"dsatrack/internal/api/middleware"
	"dsatrack/internal/app/service"
	"dsatrack/internal/common"

	"github.com/go-chi/chi/v5"
)

type QuestionHandler struct {
	questionService *service.QuestionService
}

func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

func (h *QuestionHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.Get("/", h.list)
	r.Get("/filter", h.list)
	r.Get("/{questionID}", h.get)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.AdminOnly)
		admin.Post("/", h.create)
		admin.Put("/{questionID}", h.update)
		admin.Delete("/{questionID}", h.delete)
	})
}

func (h *QuestionHandler) list(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questionService.List(r.Context(), r.URL.Query().Get("type"), r.URL.Query().Get("difficulty"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, questions)
}

func (h *QuestionHandler) get(w http.ResponseWriter, r *http.Request) {
	question, err := h.questionService.Get(r.Context(), chi.URLParam(r, "questionID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, question)
}

func (h *QuestionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	question, err := h.questionService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, question)
}

func (h *QuestionHandler) update(w http.ResponseWriter, r *http.Request) {
	var req service.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	question, err := h.questionService.Update(r.Context(), chi.URLParam(r, "questionID"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, question)
}

func (h *QuestionHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.questionService.Delete(r.Context(), chi.URLParam(r, "questionID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Question deleted"})
}
