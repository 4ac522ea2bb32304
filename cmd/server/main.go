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

	"dsatrack/internal/api"
	"dsatrack/internal/app/service"
	appsync "dsatrack/internal/app/sync"
	"dsatrack/internal/common/security"
	"dsatrack/internal/domain/repository"
	"dsatrack/internal/platform/cache"
	"dsatrack/internal/platform/config"
	"dsatrack/internal/platform/database"
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

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	questionRepo := repository.NewPgQuestionRepository(database.DB)
	progressRepo := repository.NewPgProgressRepository(database.DB)
	bookmarkRepo := repository.NewPgBookmarkRepository(database.DB)
	leaderboardRepo := repository.NewPgLeaderboardRepository(database.DB)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	questionService := service.NewQuestionService(questionRepo)
	progressService := service.NewProgressService(progressRepo, questionRepo)
	bookmarkService := service.NewBookmarkService(bookmarkRepo, questionRepo)
	leaderboardService := service.NewLeaderboardService(leaderboardRepo, cache.RDB, config.AppConfig.LeaderboardCacheTTL)

	fetcher := appsync.NewFetcher(appsync.FetcherOptions{
		MaxAttempts:    config.AppConfig.SyncMaxAttempts,
		AttemptTimeout: config.AppConfig.SyncAttemptTimeout,
		Backoff:        config.AppConfig.SyncBackoff,
	})
	syncService := appsync.NewService(userRepo, questionRepo, progressRepo, fetcher, cache.RDB, appsync.Options{
		BatchSize:  config.AppConfig.SyncBatchSize,
		BatchDelay: config.AppConfig.SyncBatchDelay,
	})

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(authService, userService, questionService, progressService, bookmarkService, leaderboardService, syncService)

	server := &http.Server{
		Addr:    ":" + config.AppConfig.APIPort,
		Handler: router,
		// Write timeout stays above the per-platform retry budget so
		// long syncs are not cut off mid-response.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
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
