package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/smartagricare-api/internal/interface/http"
	"github.com/oksasatya/smartagricare-api/internal/interface/middleware"
)

type ReportModule struct {
	Handler *handlers.ReportHandler
	Auth    middleware.Authenticator
	RDB     *redis.Client
}

func NewReportModule(h *handlers.ReportHandler, auth middleware.Authenticator, rdb *redis.Client) *ReportModule {
	return &ReportModule{Handler: h, Auth: auth, RDB: rdb}
}

func (m *ReportModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/disease")
	g.Use(middleware.Auth(m.Auth))
	g.Use(middleware.RateLimit(m.RDB, 60, time.Minute, middleware.KeyByUserID(), nil))
	{
		g.POST("/report", m.Handler.Save)
		g.GET("/reports", m.Handler.List)
	}
}
