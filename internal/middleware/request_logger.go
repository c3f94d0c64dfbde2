package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
)

// RequestIDHeader - заголовок с id запроса, принимается от клиента или генерируется
const RequestIDHeader = "X-Request-ID"

// RequestLogger пишет по строке лога на запрос
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = log.With("component", "HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		}
		if userID, ok := c.Get("user_id"); ok {
			fields = append(fields, "user_id", userID)
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("[HTTP] request failed", fields...)
		case status >= 400:
			log.Warn("[HTTP] request rejected", fields...)
		default:
			log.Info("[HTTP] request handled", fields...)
		}
	}
}
