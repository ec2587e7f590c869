package handler

import (
	"encoding/json"
	"net/http"

	"cf_coach/internal/api/middleware"
	"cf_coach/internal/app/authz"
	"cf_coach/internal/app/service"
	"cf_coach/internal/common"
	"cf_coach/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type VerificationHandler struct {
	verificationService *service.VerificationService
	completionService   *service.CompletionService
}

func NewVerificationHandler(vs *service.VerificationService, cs *service.CompletionService) *VerificationHandler {
	return &VerificationHandler{verificationService: vs, completionService: cs}
}

func (h *VerificationHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.Post("/start", h.startVerification)
	r.Post("/end", h.endVerification)
	r.Get("/completion", h.checkCompletion) // GET /api/v1/verification/completion?handle=...&cf_code=...
}

func (h *VerificationHandler) startVerification(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	if p.Role != authz.RoleStudent {
		common.RespondWithError(w, http.StatusForbidden, "Only students verify judge accounts")
		return
	}

	resp, err := h.verificationService.Start(r.Context(), p.ID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *VerificationHandler) endVerification(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req struct {
		Ticket string `json:"ticket"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	resp, err := h.verificationService.End(r.Context(), p.ID, req.Ticket)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *VerificationHandler) checkCompletion(w http.ResponseWriter, r *http.Request) {
	handle := r.URL.Query().Get("handle")
	codeStr := r.URL.Query().Get("cf_code")
	if handle == "" || codeStr == "" {
		common.RespondWithError(w, http.StatusBadRequest, "handle and cf_code query parameters are required")
		return
	}

	code, err := model.ParseProblemCode(codeStr)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Malformed problem code: "+codeStr)
		return
	}

	result, err := h.completionService.VerifyCompletion(r.Context(), handle, code)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}
