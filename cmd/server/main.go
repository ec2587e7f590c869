package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cf_coach/internal/api"
	"cf_coach/internal/app/authz"
	"cf_coach/internal/app/service"
	"cf_coach/internal/common/security"
	"cf_coach/internal/domain/repository"
	"cf_coach/internal/judge"
	"cf_coach/internal/platform/cache"
	"cf_coach/internal/platform/config"
	"cf_coach/internal/platform/database"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	if err := database.Migrate(context.Background()); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}
	fmt.Println("Migrations applied.")

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	accountRepo := repository.NewPgCFAccountRepository(database.DB)
	groupRepo := repository.NewPgGroupRepository(database.DB)
	membershipRepo := repository.NewPgMembershipRepository(database.DB)
	assignmentRepo := repository.NewPgAssignmentRepository(database.DB)
	exerciseRepo := repository.NewPgExerciseRepository(database.DB)
	studentExerciseRepo := repository.NewPgStudentExerciseRepository(database.DB)
	challengeRepo := repository.NewPgChallengeRepository(database.DB)

	// 6. Judge client, ownership resolver, ticket signer
	judgeClient := judge.NewClient(config.AppConfig.CFAPIBaseURL, config.AppConfig.CFAPITimeout)
	resolver := authz.NewResolver(groupRepo, assignmentRepo, exerciseRepo, membershipRepo)
	ticketSigner := security.NewTicketSigner(config.AppConfig.TicketKey, config.AppConfig.TicketTTL)

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo, accountRepo)
	groupService := service.NewGroupService(groupRepo, membershipRepo, assignmentRepo, exerciseRepo, studentExerciseRepo, userRepo, resolver, database.DB)
	assignmentService := service.NewAssignmentService(assignmentRepo, exerciseRepo, studentExerciseRepo, resolver, database.DB)
	exerciseService := service.NewExerciseService(exerciseRepo, studentExerciseRepo, resolver, judgeClient, database.DB)
	completionService := service.NewCompletionService(exerciseRepo, studentExerciseRepo, challengeRepo, accountRepo, userRepo, resolver, judgeClient, config.AppConfig.CFSubmissionsPage)
	verificationService := service.NewVerificationService(accountRepo, judgeClient, ticketSigner, cache.RDB, config.AppConfig.ProblemPoolTTL)

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(authService, groupService, assignmentService, exerciseService, completionService, verificationService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
