// Package weather fetches current conditions from Open-Meteo for the
// dashboard and caches them in Redis.
package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/smartagricare-api/internal/observability/metrics"
	"github.com/oksasatya/smartagricare-api/pkg/helpers"
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrUpstream           = errors.New("weather provider unavailable")
)

// Report is the weather summary shown to the farmer.
type Report struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Condition   string  `json:"condition"`
	ObservedAt  string  `json:"observedAt"`
}

type forecastResponse struct {
	Current struct {
		Time             string  `json:"time"`
		Temperature      float64 `json:"temperature_2m"`
		RelativeHumidity float64 `json:"relative_humidity_2m"`
		WeatherCode      int     `json:"weather_code"`
		WindSpeed        float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Client talks to the Open-Meteo forecast API. rdb may be nil, which
// disables caching.
type Client struct {
	http   *resty.Client
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewClient(baseURL string, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Accept", "application/json")
	return &Client{http: hc, rdb: rdb, ttl: ttl, logger: logger}
}

// ValidCoordinates reports whether lat/lng are finite and in range.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// cacheKey rounds to two decimals, roughly a 1 km grid.
func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("weather:current:%.2f:%.2f", lat, lng)
}

// Current returns the current conditions at lat/lng.
func (c *Client) Current(ctx context.Context, lat, lng float64) (*Report, error) {
	if !ValidCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}
	key := cacheKey(lat, lng)
	if c.rdb != nil && c.ttl > 0 {
		var cached Report
		ok, err := helpers.RedisGetJSON(ctx, c.rdb, key, &cached)
		if err != nil {
			// An undecodable entry would keep failing until it expires.
			c.logger.WithError(err).Warn("weather cache read failed; evicting")
			_ = helpers.RedisDel(ctx, c.rdb, key)
		}
		if ok {
			metrics.ObserveWeather("cache", "hit")
			return &cached, nil
		}
	}

	var body forecastResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":  fmt.Sprintf("%.4f", lat),
			"longitude": fmt.Sprintf("%.4f", lng),
			"current":   "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m",
			"timezone":  "auto",
		}).
		SetResult(&body).
		SetError(&apiErr).
		Get("/v1/forecast")
	if err != nil {
		metrics.ObserveWeather("upstream", "error")
		c.logger.WithError(err).Error("weather request failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		metrics.ObserveWeather("upstream", "error")
		c.logger.WithFields(logrus.Fields{"status": resp.StatusCode(), "reason": apiErr.Reason}).Error("weather provider returned error")
		return nil, fmt.Errorf("%w: status %d %s", ErrUpstream, resp.StatusCode(), apiErr.Reason)
	}

	rep := &Report{
		Latitude:    lat,
		Longitude:   lng,
		Temperature: body.Current.Temperature,
		Humidity:    body.Current.RelativeHumidity,
		WindSpeed:   body.Current.WindSpeed,
		Condition:   Condition(body.Current.WeatherCode),
		ObservedAt:  body.Current.Time,
	}
	metrics.ObserveWeather("upstream", "ok")

	if c.rdb != nil && c.ttl > 0 {
		if err := helpers.RedisSetJSON(ctx, c.rdb, key, rep, c.ttl); err != nil {
			c.logger.WithError(err).Warn("weather cache write failed")
		}
	}
	return rep, nil
}

// Condition maps a WMO weather interpretation code to a short label.
func Condition(code int) string {
	switch code {
	case 0:
		return "Clear"
	case 1:
		return "Mainly Clear"
	case 2:
		return "Partly Cloudy"
	case 3:
		return "Overcast"
	case 45, 48:
		return "Fog"
	case 51, 53, 55:
		return "Drizzle"
	case 56, 57:
		return "Freezing Drizzle"
	case 61, 63, 65:
		return "Rain"
	case 66, 67:
		return "Freezing Rain"
	case 71, 73, 75, 77:
		return "Snow"
	case 80, 81, 82:
		return "Rain Showers"
	case 85, 86:
		return "Snow Showers"
	case 95:
		return "Thunderstorm"
	case 96, 99:
		return "Thunderstorm with Hail"
	default:
		return "Unknown"
	}
}
