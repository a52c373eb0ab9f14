package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"inkwell/api/internal/config"
)

// RateLimit throttles the unauthenticated auth endpoints per client IP
// with a fixed redis counter window. It fails open: if redis is down,
// requests pass and the error is logged.
func RateLimit(cfg config.RateLimitConfig, client *redis.Client, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || client == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", c.FullPath(), c.ClientIP())

		count, err := client.Incr(c.Request.Context(), key).Result()
		if err != nil {
			log.Error().Err(err).Msg("rate limit counter failed")
			c.Next()
			return
		}
		if count == 1 {
			client.Expire(c.Request.Context(), key, cfg.Window)
		}

		if count > int64(cfg.Requests) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too_many_requests"})
			return
		}

		c.Next()
	}
}
