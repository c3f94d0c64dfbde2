package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizcanvas-api/internal/config"
	"github.com/yourusername/quizcanvas-api/internal/handler"
	"github.com/yourusername/quizcanvas-api/internal/middleware"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
	pgRepo "github.com/yourusername/quizcanvas-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/quizcanvas-api/internal/repository/redis"
	"github.com/yourusername/quizcanvas-api/internal/service"
	"github.com/yourusername/quizcanvas-api/internal/service/questionfile"
	"github.com/yourusername/quizcanvas-api/pkg/auth"
	"github.com/yourusername/quizcanvas-api/pkg/database"
	"github.com/yourusername/quizcanvas-api/pkg/storage"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	appLog, err := logger.New(cfg.Server.Mode)
	if err != nil {
		log.Printf("Failed to init logger: %v", err)
		os.Exit(1)
	}
	defer appLog.Sync()

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// PostgreSQL и миграции
	db, err := database.NewPostgresDB(cfg.Database, cfg.Server.Mode)
	if err != nil {
		appLog.Fatal("[Main] failed to connect to database", "error", err)
	}
	if err := database.MigrateDB(db, cfg.Database.MigrationsPath, appLog); err != nil {
		appLog.Fatal("[Main] failed to migrate database", "error", err)
	}

	// Redis: токены сброса пароля и rate limit
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		appLog.Fatal("[Main] failed to connect to Redis", "error", err)
	}
	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		appLog.Fatal("[Main] failed to initialize CacheRepo", "error", err)
	}
	appLog.Info("[Main] connected to Redis", "mode", cfg.Redis.Mode)

	// Хранилище файлов
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var blobs service.BlobStore
	switch cfg.Storage.Backend {
	case "memory":
		appLog.Warn("[Main] using in-memory blob store, uploaded files are lost on restart")
		blobs = storage.NewMemoryStore()
	default:
		gcs, err := storage.NewGCSStore(rootCtx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile, appLog)
		if err != nil {
			appLog.Fatal("[Main] failed to initialize GCS store", "error", err)
		}
		defer gcs.Close()
		blobs = gcs
	}

	// Уведомления по email
	var notifier service.Notifier
	if cfg.Email.ResendAPIKey != "" {
		resendNotifier, err := service.NewResendNotifier(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.FrontendBaseURL)
		if err != nil {
			appLog.Fatal("[Main] failed to initialize Resend notifier", "error", err)
		}
		notifier = resendNotifier
	} else {
		appLog.Warn("[Main] RESEND_API_KEY is empty, emails are only logged")
		notifier = service.NewNoopNotifier(appLog)
	}

	// Репозитории
	userRepo := pgRepo.NewUserRepo(db)
	repos := service.QuizRepositories{
		Files:     pgRepo.NewFileRepo(db),
		Quizzes:   pgRepo.NewQuizRepo(db),
		Sections:  pgRepo.NewSectionRepo(db),
		Questions: pgRepo.NewQuestionRepo(db),
		Attempts:  pgRepo.NewAttemptRepo(db),
		Answers:   pgRepo.NewAnswerRepo(db),
		Progress:  pgRepo.NewProgressRepo(db),
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		appLog.Fatal("[Main] failed to initialize JWTService", "error", err)
	}

	// Сервисы
	authService, err := service.NewAuthService(userRepo, cacheRepo, jwtService, notifier, appLog)
	if err != nil {
		appLog.Fatal("[Main] failed to initialize AuthService", "error", err)
	}
	userService := service.NewUserService(userRepo)

	parser := questionfile.NewParser(cfg.Upload.MaxBytes)
	ingestionService, err := service.NewIngestionService(db, repos.Files, repos.Quizzes, repos.Sections, repos.Questions, blobs, parser, appLog)
	if err != nil {
		appLog.Fatal("[Main] failed to initialize IngestionService", "error", err)
	}
	quizService, err := service.NewQuizService(db, repos, blobs, cfg.Storage.SignedURLTTL(), appLog)
	if err != nil {
		appLog.Fatal("[Main] failed to initialize QuizService", "error", err)
	}
	progressService, err := service.NewProgressService(repos.Progress, repos.Attempts, repos.Quizzes, appLog)
	if err != nil {
		appLog.Fatal("[Main] failed to initialize ProgressService", "error", err)
	}
	attemptService, err := service.NewAttemptService(db, repos, progressService, cfg.Attempt.ResumeCeiling(), appLog)
	if err != nil {
		appLog.Fatal("[Main] failed to initialize AttemptService", "error", err)
	}
	reportService, err := service.NewReportService(progressService, repos.Sections, appLog)
	if err != nil {
		appLog.Fatal("[Main] failed to initialize ReportService", "error", err)
	}

	sqlDB, err := database.GetSQLDB(db)
	if err != nil {
		appLog.Fatal("[Main] failed to get sql.DB", "error", err)
	}

	handlers := handler.Handlers{
		Auth:     handler.NewAuthHandler(authService, appLog),
		User:     handler.NewUserHandler(userService, appLog),
		Quiz:     handler.NewQuizHandler(quizService, ingestionService, parser.MaxBytes(), appLog),
		Attempt:  handler.NewAttemptHandler(attemptService, appLog),
		Progress: handler.NewProgressHandler(progressService, reportService, appLog),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": handler.PingFunc(sqlDB.PingContext),
			"redis":    cacheRepo,
		}),
	}
	router := handler.NewRouter(
		handlers,
		middleware.NewAuthMiddleware(jwtService),
		middleware.NewRateLimiter(redisClient, appLog),
		handler.RouterConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			TrustedProxies: cfg.Server.TrustedProxies,
			AuthRateLimit:  middleware.AuthRateLimitConfig(cfg.RateLimit.AuthMaxRequests, cfg.RateLimit.Window()),
		},
		appLog,
	)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		appLog.Info("[Main] starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("[Main] server failed", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-rootCtx.Done():
	}
	appLog.Info("[Main] shutting down server")

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("[Main] server forced to shutdown", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		appLog.Warn("[Main] failed to close Redis client", "error", err)
	}
	if err := sqlDB.Close(); err != nil {
		appLog.Warn("[Main] failed to close database", "error", err)
	}
	appLog.Info("[Main] server exited properly")
}
