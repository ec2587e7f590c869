package handler

import (
	"encoding/json"
	"net/http"

	"cf_coach/internal/api/middleware"
	"cf_coach/internal/app/service"
	"cf_coach/internal/common"

	"github.com/go-chi/chi/v5"
)

// CompletionHandler serves completion records for assigned exercises and
// self-directed challenges.
type CompletionHandler struct {
	completionService *service.CompletionService
}

func NewCompletionHandler(cs *service.CompletionService) *CompletionHandler {
	return &CompletionHandler{completionService: cs}
}

func (h *CompletionHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.Post("/", h.createStudentExercise)
	r.Get("/", h.listStudentExercises) // GET /api/v1/completions?student_id=...
}

func (h *CompletionHandler) RegisterChallengeRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.Post("/", h.createChallenge)
	r.Get("/", h.listChallenges) // GET /api/v1/challenges?student_id=...
	r.Post("/{challengeID}/complete", h.completeChallenge)
}

func (h *CompletionHandler) createStudentExercise(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateStudentExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	record, err := h.completionService.CreateStudentExercise(r.Context(), p, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, record)
}

func (h *CompletionHandler) listStudentExercises(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	studentID := r.URL.Query().Get("student_id")
	if studentID == "" {
		studentID = p.ID
	}

	records, err := h.completionService.ListStudentExercises(r.Context(), p, studentID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, records)
}

func (h *CompletionHandler) createChallenge(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	challenge, err := h.completionService.CreateChallenge(r.Context(), p, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, challenge)
}

func (h *CompletionHandler) completeChallenge(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	challenge, err := h.completionService.CompleteChallenge(r.Context(), p, chi.URLParam(r, "challengeID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenge)
}

func (h *CompletionHandler) listChallenges(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	studentID := r.URL.Query().Get("student_id")
	if studentID == "" {
		studentID = p.ID
	}

	challenges, err := h.completionService.ListChallenges(r.Context(), p, studentID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenges)
}
