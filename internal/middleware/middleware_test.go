package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
	"github.com/yourusername/quizcanvas-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "middleware-test-secret"

func serve(t *testing.T, router *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func bodyCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	code, _ := resp["code"].(string)
	return code
}

// ============================================================================
// ExtractUintParam
// ============================================================================

func TestExtractUintParam(t *testing.T) {
	router := gin.New()
	router.GET("/quizzes/:id", ExtractUintParam("id", "quizID"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.MustGet("quizID").(uint)})
	})

	tests := []struct {
		id         string
		wantStatus int
	}{
		{id: "42", wantStatus: http.StatusOK},
		{id: "0", wantStatus: http.StatusBadRequest},
		{id: "-3", wantStatus: http.StatusBadRequest},
		{id: "abc", wantStatus: http.StatusBadRequest},
		{id: "99999999999", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			w := serve(t, router, http.MethodGet, "/quizzes/"+tt.id, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusBadRequest {
				assert.Equal(t, apperrors.CodeValidation, bodyCode(t, w))
			}
		})
	}
}

// ============================================================================
// RequireAuth
// ============================================================================

func newAuthRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtService, err := auth.NewJWTService(testSecret, 1)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", NewAuthMiddleware(jwtService).RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.MustGet("user_id").(uint), "email": c.MustGet("email").(string)})
	})
	return router, jwtService
}

func TestRequireAuth_ValidToken(t *testing.T) {
	router, jwtService := newAuthRouter(t)
	token, _, err := jwtService.GenerateToken(&entity.User{ID: 7, Email: "alice@example.com"})
	require.NoError(t, err)

	w := serve(t, router, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + token})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(7), resp["user_id"])
	assert.Equal(t, "alice@example.com", resp["email"])
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	router, _ := newAuthRouter(t)
	past := time.Now().Add(-2 * time.Hour)
	claims := auth.JWTCustomClaims{
		UserID: 7,
		Email:  "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	w := serve(t, router, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + token})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_EXPIRED", bodyCode(t, w))
}

func TestRequireAuth_ForeignSignature(t *testing.T) {
	router, _ := newAuthRouter(t)
	other, err := auth.NewJWTService("another-secret", 1)
	require.NoError(t, err)
	token, _, err := other.GenerateToken(&entity.User{ID: 7, Email: "alice@example.com"})
	require.NoError(t, err)

	w := serve(t, router, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + token})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.CodeInvalidCredentials, bodyCode(t, w))
}

// ============================================================================
// RateLimiter
// ============================================================================

func TestAuthRateLimitConfig_Defaults(t *testing.T) {
	cfg := AuthRateLimitConfig(0, 0)

	assert.Equal(t, 20, cfg.MaxRequests)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.True(t, cfg.PerPath)
}

func TestRateLimiter_NilClientPassesThrough(t *testing.T) {
	limiter := NewRateLimiter(nil, logger.NewNop())
	router := gin.New()
	router.POST("/login", limiter.Limit(RateLimitConfig{MaxRequests: 1, Window: time.Minute, KeyPrefix: "rl:test"}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := serve(t, router, http.MethodPost, "/login", nil)
		assert.Equal(t, http.StatusOK, w.Code, "запрос %d", i+1)
	}
}

func TestRateLimiter_FailOpenWhenRedisUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	limiter := NewRateLimiter(client, logger.NewNop())
	router := gin.New()
	router.POST("/login", limiter.Limit(RateLimitConfig{MaxRequests: 1, Window: time.Minute, KeyPrefix: "rl:test"}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		w := serve(t, router, http.MethodPost, "/login", nil)
		assert.Equal(t, http.StatusOK, w.Code, "недоступный Redis не должен блокировать вход")
	}
}

// ============================================================================
// RequestLogger
// ============================================================================

func TestRequestLogger_RequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger(logger.NewNop()))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := serve(t, router, http.MethodGet, "/ping", nil)
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	w = serve(t, router, http.MethodGet, "/ping", map[string]string{RequestIDHeader: "req-123"})
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader), "id клиента пробрасывается как есть")
}
