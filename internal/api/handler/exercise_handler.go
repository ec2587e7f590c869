package handler

import (
	"encoding/json"
	"net/http"

	"cf_coach/internal/api/middleware"
	"cf_coach/internal/app/service"
	"cf_coach/internal/common"

	"github.com/go-chi/chi/v5"
)

type ExerciseHandler struct {
	exerciseService *service.ExerciseService
}

func NewExerciseHandler(es *service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: es}
}

func (h *ExerciseHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.Get("/", h.listExercises) // GET /api/v1/exercises?assignment_id=...
	r.Post("/", h.createExercise)
	r.Get("/{exerciseID}", h.getExercise)
	r.Put("/{exerciseID}", h.updateExercise)
	r.Delete("/{exerciseID}", h.deleteExercise)
}

func (h *ExerciseHandler) createExercise(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	exercise, err := h.exerciseService.CreateExercise(r.Context(), p, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, exercise)
}

func (h *ExerciseHandler) listExercises(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	assignmentID := r.URL.Query().Get("assignment_id")
	if assignmentID == "" {
		common.RespondWithError(w, http.StatusBadRequest, "assignment_id query parameter is required")
		return
	}

	exercises, err := h.exerciseService.ListExercises(r.Context(), p, assignmentID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, exercises)
}

func (h *ExerciseHandler) getExercise(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	exercise, err := h.exerciseService.GetExercise(r.Context(), p, chi.URLParam(r, "exerciseID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, exercise)
}

func (h *ExerciseHandler) updateExercise(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.UpdateExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	exercise, err := h.exerciseService.UpdateExercise(r.Context(), p, chi.URLParam(r, "exerciseID"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, exercise)
}

func (h *ExerciseHandler) deleteExercise(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.exerciseService.DeleteExercise(r.Context(), p, chi.URLParam(r, "exerciseID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondNoContent(w)
}
