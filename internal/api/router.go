package api

import (
	"net/http"
	"time"

	"cf_coach/internal/api/handler"
	"cf_coach/internal/app/service"
	"cf_coach/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	groupService *service.GroupService,
	assignmentService *service.AssignmentService,
	exerciseService *service.ExerciseService,
	completionService *service.CompletionService,
	verificationService *service.VerificationService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies the bearer token and puts claims in the request context.
	// Route-level Authenticator middleware enforces validity.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		// Judge account linking (authenticated, students only)
		v1.Route("/account", authHandler.RegisterAccountRoutes)

		// Group routes (authenticated)
		groupHandler := handler.NewGroupHandler(groupService)
		v1.Route("/groups", groupHandler.RegisterRoutes)

		// Assignment routes (authenticated)
		assignmentHandler := handler.NewAssignmentHandler(assignmentService)
		v1.Route("/assignments", assignmentHandler.RegisterRoutes)

		// Exercise routes (authenticated)
		exerciseHandler := handler.NewExerciseHandler(exerciseService)
		v1.Route("/exercises", exerciseHandler.RegisterRoutes)

		// Completion records and self-directed challenges (authenticated)
		completionHandler := handler.NewCompletionHandler(completionService)
		v1.Route("/completions", completionHandler.RegisterRoutes)
		v1.Route("/challenges", completionHandler.RegisterChallengeRoutes)

		// Account ownership verification (authenticated)
		verificationHandler := handler.NewVerificationHandler(verificationService, completionService)
		v1.Route("/verification", verificationHandler.RegisterRoutes)
	})

	return r
}
