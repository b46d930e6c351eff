package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/smartagricare-api/internal/infrastructure/weather"
	"github.com/oksasatya/smartagricare-api/pkg/response"
	"github.com/oksasatya/smartagricare-api/pkg/validation"
)

// WeatherProvider returns current conditions for a coordinate.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lng float64) (*weather.Report, error)
}

type WeatherHandler struct {
	Provider WeatherProvider
	Logger   *logrus.Logger
}

func NewWeatherHandler(p WeatherProvider, logger *logrus.Logger) *WeatherHandler {
	return &WeatherHandler{Provider: p, Logger: logger}
}

type weatherQuery struct {
	Lat *float64 `form:"lat" binding:"required,latitude"`
	Lng *float64 `form:"lng" binding:"required,longitude"`
}

// Current GET /api/weather?lat=..&lng=..
func (h *WeatherHandler) Current(c *gin.Context) {
	var q weatherQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "lat and lng are required coordinates", validation.ToDetails(err))
		return
	}
	rep, err := h.Provider.Current(c.Request.Context(), *q.Lat, *q.Lng)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"weather": rep}, "current weather", nil)
}
