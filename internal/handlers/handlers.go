package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"inkwell/api/internal/config"
	"inkwell/api/internal/mail"
	"inkwell/api/internal/middleware"
	"inkwell/api/internal/models"
	"inkwell/api/internal/repository"
	"inkwell/api/internal/security"
	"inkwell/api/internal/service"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	tokens      *security.TokenService
	db          *pgxpool.Pool
	cache       *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, notifier mail.Notifier, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	codeRepo := repository.NewVerificationRepository(db)
	tokens := security.NewTokenService(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.JWTAccessTTL,
		cfg.Security.JWTRefreshTTL,
	)
	auth := service.NewAuthService(userRepo, tokenRepo, codeRepo, notifier, tokens, cfg.Security, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: auth,
		tokens:      tokens,
		db:          db,
		cache:       cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(h.cfg.RateLimit, h.cache, h.log))
		auth.POST("/register", h.RegisterUser)
		auth.POST("/verify-otp", h.VerifyOTP)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)

		account := v1.Group("/auth")
		account.Use(middleware.Auth(h.tokens))
		account.POST("/logout", h.Logout)
		account.GET("/me", h.Me)
		account.PATCH("/me", h.UpdateProfile)
		account.DELETE("/me", h.DeleteAccount)
		account.POST("/change-password", h.ChangePassword)
		account.POST("/deactivate", h.DeactivateAccount)

		admin := v1.Group("/admin")
		admin.Use(
			middleware.Auth(h.tokens),
			middleware.RequireRoles(models.UserRoleAdmin),
		)
		admin.GET("/users", h.AdminListUsers)
		admin.PATCH("/users/:userId/role", h.AdminUpdateUserRole)
		admin.DELETE("/users/:userId", h.AdminDeleteUser)
	}
}

// writeError maps domain errors onto HTTP statuses; anything outside
// the domain taxonomy is a 500 with the detail kept out of the body.
func (h HandlerSet) writeError(c *gin.Context, err error) {
	var domainErr *service.Error
	if errors.As(err, &domainErr) {
		status := http.StatusInternalServerError
		switch domainErr.Kind {
		case service.KindAuthentication:
			status = http.StatusUnauthorized
		case service.KindAuthorization:
			status = http.StatusForbidden
		case service.KindNotFound:
			status = http.StatusNotFound
		case service.KindConflict:
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": domainErr.Message})
		return
	}

	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
}
