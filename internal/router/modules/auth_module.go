package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/smartagricare-api/internal/interface/http"
	"github.com/oksasatya/smartagricare-api/internal/interface/middleware"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	User    *handlers.UserHandler
	Auth    middleware.Authenticator
	RDB     *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, u *handlers.UserHandler, auth middleware.Authenticator, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, User: u, Auth: auth, RDB: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	registerLimiter := middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	forgotLimiter := middleware.RateLimit(m.RDB, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetLimiter := middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/logout", m.Handler.Logout)
	rg.POST("/auth/forgot-password", forgotLimiter, m.Handler.ForgotPassword)
	rg.POST("/auth/reset-password", resetLimiter, m.Handler.ResetPassword)

	// Protected profile with user-based rate limit
	auth := rg.Group("/auth")
	auth.Use(middleware.Auth(m.Auth))
	auth.Use(middleware.RateLimit(m.RDB, 60, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/profile", m.User.GetProfile)
		auth.PUT("/profile", m.User.UpdateProfile)
	}
}
