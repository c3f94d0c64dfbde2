package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
)

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	// MaxRequests - максимальное количество запросов за Window
	MaxRequests int
	Window      time.Duration
	// KeyPrefix - префикс для ключей в Redis
	KeyPrefix string
	// PerPath: считать запросы отдельно для каждого маршрута
	PerPath bool
}

// AuthRateLimitConfig - лимит для /api/auth/*. Нулевые значения заменяются умолчаниями 20/мин.
func AuthRateLimitConfig(maxRequests int, window time.Duration) RateLimitConfig {
	if maxRequests <= 0 {
		maxRequests = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	return RateLimitConfig{MaxRequests: maxRequests, Window: window, KeyPrefix: "rl:auth", PerPath: true}
}

const redisOpTimeout = 2 * time.Second

// RateLimiter - счетчик запросов в окне фиксированной длины на Redis
type RateLimiter struct {
	redisClient redis.UniversalClient
	log         *logger.Logger
}

// NewRateLimiter создает новый RateLimiter. nil-клиент отключает ограничение.
func NewRateLimiter(redisClient redis.UniversalClient, log *logger.Logger) *RateLimiter {
	return &RateLimiter{redisClient: redisClient, log: log.With("component", "RateLimiter")}
}

func (rl *RateLimiter) key(c *gin.Context, cfg RateLimitConfig) string {
	if !cfg.PerPath {
		return fmt.Sprintf("%s:%s", cfg.KeyPrefix, c.ClientIP())
	}
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	return fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, c.ClientIP(), path)
}

// Limit возвращает Gin middleware с заданной конфигурацией.
// При недоступности Redis запрос пропускается (fail-open).
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.redisClient == nil {
			c.Next()
			return
		}
		key := rl.key(c, cfg)

		ctx, cancel := context.WithTimeout(c.Request.Context(), redisOpTimeout)
		defer cancel()

		count, err := rl.redisClient.Incr(ctx, key).Result()
		if err != nil {
			rl.log.Warn("[RateLimiter] redis unavailable, allowing request", "key", key, "error", err)
			c.Next()
			return
		}
		// Первый запрос в окне - ставим TTL
		if count == 1 {
			if err := rl.redisClient.Expire(ctx, key, cfg.Window).Err(); err != nil {
				rl.log.Warn("[RateLimiter] failed to set TTL", "key", key, "error", err)
			}
		}

		remaining := cfg.MaxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		ttl, _ := rl.redisClient.TTL(ctx, key).Result()
		retryAfter := int(ttl.Seconds())
		if retryAfter < 0 {
			retryAfter = int(cfg.Window.Seconds())
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(retryAfter))

		if int(count) > cfg.MaxRequests {
			rl.log.Warn("[RateLimiter] rate limit exceeded", "ip", c.ClientIP(), "key", key, "count", count, "limit", cfg.MaxRequests)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too many requests. Please try again later.",
				"code":    "RATE_LIMITED",
				"details": gin.H{"retry_after": retryAfter},
			})
			return
		}

		c.Next()
	}
}
