package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/smartagricare-api/internal/interface/http"
	"github.com/oksasatya/smartagricare-api/internal/interface/middleware"
)

type WeatherModule struct {
	Handler *handlers.WeatherHandler
	RDB     *redis.Client
}

func NewWeatherModule(h *handlers.WeatherHandler, rdb *redis.Client) *WeatherModule {
	return &WeatherModule{Handler: h, RDB: rdb}
}

func (m *WeatherModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(m.RDB, 60, time.Minute, middleware.KeyByIPAndPath(), nil)
	rg.GET("/weather", rl, m.Handler.Current)
}
