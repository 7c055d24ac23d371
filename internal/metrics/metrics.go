package metrics

import (
	"strconv"
	"time"

	"directory-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "directory_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "directory_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	AssetOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "directory_asset_operations_total",
		Help: "Image store/delete operations by category and result",
	}, []string{"op", "category", "result"})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "directory_job_runs_total",
		Help: "Scheduled job runs by job and result",
	}, []string{"job", "result"})
)

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Middleware records request count and latency per matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			status = apperr.StatusOf(err)
		}

		HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
