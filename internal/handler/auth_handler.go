package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizcanvas-api/internal/handler/dto"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
	"github.com/yourusername/quizcanvas-api/internal/service"
)

// AuthHandler обрабатывает запросы, связанные с аутентификацией
type AuthHandler struct {
	authService *service.AuthService
	log         *logger.Logger
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(authService *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With("component", "AuthHandler"),
	}
}

// Структуры запросов. Правила длины и сложности проверяет сервис, здесь только обязательность полей.

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest - вход по имени пользователя или email
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// EmailRequest - запрос сброса пароля или напоминания имени
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ConfirmResetRequest - подтверждение сброса пароля
type ConfirmResetRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func newAuthResponse(r *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		User:        dto.NewUserResponse(r.User),
		AccessToken: r.Token,
		TokenType:   "Bearer",
		ExpiresAt:   r.ExpiresAt,
	}
}

// Register обрабатывает запрос на регистрацию
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", map[string]interface{}{"reason": err.Error()})
		return
	}

	result, err := h.authService.RegisterUser(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, newAuthResponse(result))
}

// Login обрабатывает запрос на вход
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", map[string]interface{}{"reason": err.Error()})
		return
	}

	result, err := h.authService.LoginUser(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

// RequestPasswordReset всегда отвечает успехом, чтобы не раскрывать наличие аккаунта
// POST /api/auth/password-reset
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", map[string]interface{}{"reason": err.Error()})
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a reset link has been sent"})
}

// ConfirmPasswordReset меняет пароль по одноразовому токену
// POST /api/auth/password-reset/confirm
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req ConfirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", map[string]interface{}{"reason": err.Error()})
		return
	}

	if err := h.authService.ConfirmPasswordReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// UsernameReminder отправляет имя пользователя на email, если он зарегистрирован
// POST /api/auth/username-reminder
func (h *AuthHandler) UsernameReminder(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", map[string]interface{}{"reason": err.Error()})
		return
	}

	if err := h.authService.SendUsernameReminder(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, the username has been sent"})
}
