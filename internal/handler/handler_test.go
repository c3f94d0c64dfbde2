package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/internal/middleware"
	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
	"github.com/yourusername/quizcanvas-api/internal/repository/postgres"
	"github.com/yourusername/quizcanvas-api/internal/service"
	"github.com/yourusername/quizcanvas-api/internal/service/questionfile"
	"github.com/yourusername/quizcanvas-api/pkg/auth"
	"github.com/yourusername/quizcanvas-api/pkg/database"
	"github.com/yourusername/quizcanvas-api/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestGinContext создает *gin.Context для тестов с JSON body
func newTestGinContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

// memoryCache - CacheRepository на map для тестов без Redis
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (m *memoryCache) Take(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	delete(m.data, key)
	return v, nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryCache) Ping(ctx context.Context) error { return nil }

// recordingNotifier запоминает последние отправленные письма
type recordingNotifier struct {
	mu         sync.Mutex
	resetToken string
	username   string
}

func (n *recordingNotifier) SendPasswordReset(ctx context.Context, toEmail, resetToken string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetToken = resetToken
	return nil
}

func (n *recordingNotifier) SendUsernameReminder(ctx context.Context, toEmail, username string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.username = username
	return nil
}

// testServer - полный роутер поверх SQLite и хранилища в памяти
type testServer struct {
	db       *gorm.DB
	router   *gin.Engine
	blobs    *storage.MemoryStore
	notifier *recordingNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.NewInMemorySQLite()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := logger.NewNop()
	userRepo := postgres.NewUserRepo(db)
	repos := service.QuizRepositories{
		Files:     postgres.NewFileRepo(db),
		Quizzes:   postgres.NewQuizRepo(db),
		Sections:  postgres.NewSectionRepo(db),
		Questions: postgres.NewQuestionRepo(db),
		Attempts:  postgres.NewAttemptRepo(db),
		Answers:   postgres.NewAnswerRepo(db),
		Progress:  postgres.NewProgressRepo(db),
	}
	blobs := storage.NewMemoryStore()
	notifier := &recordingNotifier{}

	jwtService, err := auth.NewJWTService("test-secret", 1)
	require.NoError(t, err)
	authService, err := service.NewAuthService(userRepo, newMemoryCache(), jwtService, notifier, log)
	require.NoError(t, err)
	ingestionService, err := service.NewIngestionService(db, repos.Files, repos.Quizzes, repos.Sections, repos.Questions,
		blobs, questionfile.NewParser(questionfile.DefaultMaxBytes), log)
	require.NoError(t, err)
	quizService, err := service.NewQuizService(db, repos, blobs, time.Hour, log)
	require.NoError(t, err)
	progressService, err := service.NewProgressService(repos.Progress, repos.Attempts, repos.Quizzes, log)
	require.NoError(t, err)
	attemptService, err := service.NewAttemptService(db, repos, progressService, entity.DefaultResumeCeiling, log)
	require.NoError(t, err)
	reportService, err := service.NewReportService(progressService, repos.Sections, log)
	require.NoError(t, err)

	handlers := Handlers{
		Auth:     NewAuthHandler(authService, log),
		User:     NewUserHandler(service.NewUserService(userRepo), log),
		Quiz:     NewQuizHandler(quizService, ingestionService, questionfile.DefaultMaxBytes, log),
		Attempt:  NewAttemptHandler(attemptService, log),
		Progress: NewProgressHandler(progressService, reportService, log),
		Health:   NewHealthHandler(map[string]Pinger{"postgres": PingFunc(func(ctx context.Context) error { return nil })}),
	}
	router := NewRouter(handlers, middleware.NewAuthMiddleware(jwtService), middleware.NewRateLimiter(nil, log),
		RouterConfig{AuthRateLimit: middleware.AuthRateLimitConfig(0, 0)}, log)

	return &testServer{db: db, router: router, blobs: blobs, notifier: notifier}
}

// do выполняет JSON-запрос через роутер. Пустой token - без авторизации.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		reader = bytes.NewReader([]byte(raw))
	}

	var req *http.Request
	if reader != nil {
		req = httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// register создает пользователя и возвращает его токен
func (s *testServer) register(t *testing.T, username string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "Passw0rd1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := parseJSONResponse(t, w)
	token, _ := resp["accessToken"].(string)
	require.NotEmpty(t, token, "токен должен быть выдан при регистрации")
	return token
}

// upload отправляет файл викторины multipart-формой
func (s *testServer) upload(t *testing.T, token, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("title", "Capitals"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// uploadQuiz загружает CSV и возвращает id викторины
func (s *testServer) uploadQuiz(t *testing.T, token, content string) uint {
	t.Helper()
	w := s.upload(t, token, "quiz.csv", content)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := parseJSONResponse(t, w)
	return uint(resp["quiz_id"].(float64))
}

const threeQuestionCSV = "question,option_a,option_b,option_c,option_d,correct_answer\n" +
	"Q1,a,b,c,d,a\n" +
	"Q2,a,b,c,d,b\n" +
	"Q3,a,b,c,d,c\n"

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	code, _ := parseJSONResponse(t, w)["code"].(string)
	return code
}
