package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizcanvas-api/internal/middleware"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
)

// Handlers - все обработчики API
type Handlers struct {
	Auth     *AuthHandler
	User     *UserHandler
	Quiz     *QuizHandler
	Attempt  *AttemptHandler
	Progress *ProgressHandler
	Health   *HealthHandler
}

// RouterConfig - параметры роутера
type RouterConfig struct {
	AllowedOrigins []string
	TrustedProxies []string
	AuthRateLimit  middleware.RateLimitConfig
}

var defaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// NewRouter собирает gin.Engine со всеми маршрутами /api
func NewRouter(h Handlers, authMW *middleware.AuthMiddleware, limiter *middleware.RateLimiter, cfg RouterConfig, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	// Без явного списка прокси X-Forwarded-For не учитывается
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn("[Router] failed to set trusted proxies", "error", err)
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultAllowedOrigins
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	quizID := middleware.ExtractUintParam("id", "quizID")
	attemptID := middleware.ExtractUintParam("id", "attemptID")

	api := router.Group("/api")
	{
		api.GET("/health", h.Health.Health)

		authGroup := api.Group("/auth", limiter.Limit(cfg.AuthRateLimit))
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
			authGroup.POST("/password-reset", h.Auth.RequestPasswordReset)
			authGroup.POST("/password-reset/confirm", h.Auth.ConfirmPasswordReset)
			authGroup.POST("/username-reminder", h.Auth.UsernameReminder)
		}

		authed := api.Group("", authMW.RequireAuth())
		{
			authed.GET("/users/me", h.User.GetMe)

			quizzes := authed.Group("/quizzes")
			{
				quizzes.POST("", h.Quiz.Upload)
				quizzes.GET("", h.Quiz.ListQuizzes)

				quizWithID := quizzes.Group("/:id", quizID)
				{
					quizWithID.GET("", h.Quiz.GetQuiz)
					quizWithID.PATCH("", h.Quiz.UpdateQuiz)
					quizWithID.DELETE("", h.Quiz.DeleteQuiz)
					quizWithID.GET("/file-url", h.Quiz.GetFileURL)
					quizWithID.PATCH("/questions/:questionId",
						middleware.ExtractUintParam("questionId", "questionID"), h.Quiz.UpdateQuestion)
					quizWithID.POST("/attempts", h.Attempt.StartAttempt)
					quizWithID.GET("/attempts", h.Attempt.ListAttempts)
				}
			}

			attempts := authed.Group("/attempts/:id", attemptID)
			{
				attempts.GET("", h.Attempt.GetAttempt)
				attempts.GET("/questions/:number", h.Attempt.GetQuestion)
				attempts.PUT("/answers", h.Attempt.SubmitAnswer)
				attempts.POST("/complete", h.Attempt.CompleteAttempt)
				attempts.GET("/resume", h.Attempt.ResumeAttempt)
				attempts.GET("/result", h.Attempt.GetResult)
			}

			authed.GET("/progress", h.Progress.ListProgress)
			authed.GET("/progress/export", h.Progress.ExportProgress)
			authed.GET("/dashboard", h.Progress.GetDashboard)
		}
	}

	return router
}
