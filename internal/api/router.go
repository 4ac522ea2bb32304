package api

import (
	"net/http"
	"time"

	"dsatrack/internal/api/handler"
	"dsatrack/internal/app/service"
	appsync "dsatrack/internal/app/sync"
	"dsatrack/internal/common/security"
	"dsatrack/internal/platform/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	userService *service.UserService,
	questionService *service.QuestionService,
	progressService *service.ProgressService,
	bookmarkService *service.BookmarkService,
	leaderboardService *service.LeaderboardService,
	syncService *appsync.Service,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	// Syncs can sit on upstream retries for a while, so the ceiling is
	// generous.
	r.Use(chiMiddleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AppConfig.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Verifies token, puts claims in context. Enforcement happens in
	// middleware.Authenticator on the protected groups.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public, rate limited against credential stuffing)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			publicAuth.Use(httprate.LimitByIP(10, time.Minute))
			publicAuth.Route("/auth", authHandler.RegisterRoutes)
		})

		userHandler := handler.NewUserHandler(userService)
		progressHandler := handler.NewProgressHandler(progressService)
		bookmarkHandler := handler.NewBookmarkHandler(bookmarkService)
		v1.Route("/users", func(users chi.Router) {
			userHandler.RegisterRoutes(users)
			users.Route("/{userID}/progress", progressHandler.RegisterRoutes)
			users.Route("/{userID}/bookmarks", bookmarkHandler.RegisterRoutes)
		})

		questionHandler := handler.NewQuestionHandler(questionService)
		v1.Route("/questions", questionHandler.RegisterRoutes)

		leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)
		v1.Route("/leaderboard", leaderboardHandler.RegisterRoutes)

		syncHandler := handler.NewSyncHandler(syncService)
		v1.Route("/sync", syncHandler.RegisterRoutes)
	})

	return r
}
