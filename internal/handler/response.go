package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
)

// ErrorResponse - тело ответа с ошибкой
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// statusFor сопоставляет вид ошибки с HTTP статусом
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError пишет ошибку сервиса в ответ. Внутренние ошибки логируются и наружу не раскрываются.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("[Handler] internal error", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		code := apperrors.CodeInternal
		if coded, ok := apperrors.As(err); ok && coded.Code != "" {
			code = coded.Code
		}
		c.AbortWithStatusJSON(status, ErrorResponse{Error: "Internal server error", Code: code})
		return
	}

	resp := ErrorResponse{Error: err.Error(), Code: apperrors.CodeValidation}
	if coded, ok := apperrors.As(err); ok {
		resp.Error = coded.Message
		resp.Code = coded.Code
		resp.Details = coded.Details
	}
	c.AbortWithStatusJSON(status, resp)
}

// badRequest - ответ на невалидное тело или параметры запроса
func badRequest(c *gin.Context, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Code:    apperrors.CodeValidation,
		Details: details,
	})
}

// currentUserID достает id пользователя, установленный AuthMiddleware
func currentUserID(c *gin.Context) uint {
	return c.MustGet("user_id").(uint)
}
