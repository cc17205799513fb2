package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds the HTTP-level Prometheus collectors. Cache and gateway
// collectors register themselves in their own packages.
var Metrics = struct {
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	ExploreRuns      prometheus.Counter
}{}

// InitMetrics registers the HTTP-level Prometheus metrics. Call once at startup.
func InitMetrics() {
	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytkw_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytkw_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	Metrics.ExploreRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytkw_explore_runs_total",
			Help: "Total full explore pipeline runs.",
		},
	)

	prometheus.MustRegister(
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.ExploreRuns,
	)
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next() — Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(path, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
