package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/smartagricare-api/internal/container"
	handlers "github.com/oksasatya/smartagricare-api/internal/interface/http"
	"github.com/oksasatya/smartagricare-api/internal/interface/middleware"
	"github.com/oksasatya/smartagricare-api/internal/observability/metrics"
	"github.com/oksasatya/smartagricare-api/internal/router/modules"
)

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry, c *container.Container) {
	rdb := c.RateLimitRedis()

	r.Add(modules.NewHealthModule(handlers.NewHealthHandler(c.Store)))
	r.Add(modules.NewAuthModule(
		handlers.NewAuthHandler(c.Accounts, c.Logger, c.Cfg.CookieDomain, c.Cfg.CookieSecure),
		handlers.NewUserHandler(c.Accounts, c.Logger),
		c.Accounts,
		rdb,
	))
	r.Add(modules.NewReportModule(handlers.NewReportHandler(c.Reports, c.Logger), c.Accounts, rdb))
	r.Add(modules.NewWeatherModule(handlers.NewWeatherHandler(c.Weather, c.Logger), rdb))

	if c.Cfg.MetricsEnabled {
		r.AddRoot(modules.NewMetricsModule(rdb))
	}
}

// NewEngine builds the gin engine with global middleware and every module.
func NewEngine(c *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	if c.Cfg.MetricsEnabled {
		r.Use(metrics.Middleware())
	}
	corsCfg := cors.Config{
		AllowOrigins:     c.Cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if c.Cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	reg := NewRegistry(r)
	reg.Use(middleware.NoStore())
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}
