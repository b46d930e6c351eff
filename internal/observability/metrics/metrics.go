package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartagricare_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smartagricare_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	authEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartagricare_auth_events_total",
		Help: "Account operations by event and result",
	}, []string{"event", "result"})

	reportsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartagricare_disease_reports_saved_total",
		Help: "Disease reports persisted",
	})

	weatherLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartagricare_weather_lookups_total",
		Help: "Weather lookups by source (cache, upstream) and result",
	}, []string{"source", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAuth counts register, login, forgot and reset outcomes.
func ObserveAuth(event, result string) {
	authEvents.WithLabelValues(event, result).Inc()
}

func IncReportsSaved() {
	reportsSaved.Inc()
}

func ObserveWeather(source, result string) {
	weatherLookups.WithLabelValues(source, result).Inc()
}

// Middleware records every request under its route template so path
// parameters do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		ObserveHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
