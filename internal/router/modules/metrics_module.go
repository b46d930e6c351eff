package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/smartagricare-api/internal/interface/middleware"
	"github.com/oksasatya/smartagricare-api/internal/observability/metrics"
)

// MetricsModule serves Prometheus metrics to private networks only.
type MetricsModule struct {
	RDB *redis.Client
}

func NewMetricsModule(rdb *redis.Client) *MetricsModule { return &MetricsModule{RDB: rdb} }

func (m *MetricsModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByIPAndPath(), nil)
	rg.GET("/metrics", middleware.Restrict(middleware.AllowPrivateIP()), rl, gin.WrapH(metrics.Handler()))
}
