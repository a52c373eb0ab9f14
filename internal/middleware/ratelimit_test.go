package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"inkwell/api/internal/config"
)

func newRateLimitRouter(t *testing.T, cfg config.RateLimitConfig, client *redis.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/auth/login", RateLimit(cfg, client, zerolog.Nop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func hit(r *gin.Engine) int {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "203.0.113.9:4455"
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	cfg := config.RateLimitConfig{Enabled: true, Requests: 3, Window: time.Minute}
	r := newRateLimitRouter(t, cfg, client)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r))
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	cfg := config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute}
	r := newRateLimitRouter(t, cfg, client)

	assert.Equal(t, http.StatusOK, hit(r))
	assert.Equal(t, http.StatusOK, hit(r))
	assert.Equal(t, http.StatusTooManyRequests, hit(r))
}

func TestRateLimitWindowResets(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	cfg := config.RateLimitConfig{Enabled: true, Requests: 1, Window: time.Minute}
	r := newRateLimitRouter(t, cfg, client)

	assert.Equal(t, http.StatusOK, hit(r))
	assert.Equal(t, http.StatusTooManyRequests, hit(r))

	srv.FastForward(2 * time.Minute)

	assert.Equal(t, http.StatusOK, hit(r))
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: false, Requests: 1, Window: time.Minute}
	r := newRateLimitRouter(t, cfg, nil)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(r))
	}
}

func TestRateLimitFailsOpenWhenRedisDown(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()
	srv.Close()

	cfg := config.RateLimitConfig{Enabled: true, Requests: 1, Window: time.Minute}
	r := newRateLimitRouter(t, cfg, client)

	assert.Equal(t, http.StatusOK, hit(r))
	assert.Equal(t, http.StatusOK, hit(r))
}
