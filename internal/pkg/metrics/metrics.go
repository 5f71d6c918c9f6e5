package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "midwaymeet",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "midwaymeet",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	// Maps provider metrics
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "midwaymeet",
		Subsystem: "maps",
		Name:      "provider_requests_total",
		Help:      "Total requests issued to the maps provider",
	}, []string{"op", "status"})

	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "midwaymeet",
		Subsystem: "maps",
		Name:      "provider_request_duration_seconds",
		Help:      "Maps provider call latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"op"})

	MatrixChunkRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "midwaymeet",
		Subsystem: "maps",
		Name:      "matrix_chunk_retries_total",
		Help:      "Total distance-matrix chunk retry attempts",
	})

	TravelTimeCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "midwaymeet",
		Subsystem: "maps",
		Name:      "travel_time_cache_hits_total",
		Help:      "Per-search travel-time cache hits",
	})

	TravelTimeCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "midwaymeet",
		Subsystem: "maps",
		Name:      "travel_time_cache_misses_total",
		Help:      "Per-search travel-time cache misses",
	})

	// Search metrics
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "midwaymeet",
		Subsystem: "search",
		Name:      "searches_total",
		Help:      "Total meeting-point searches by algorithm and outcome",
	}, []string{"algorithm", "outcome"})

	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "midwaymeet",
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "End-to-end meeting-point search duration",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40},
	}, []string{"algorithm"})

	SearchCandidates = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "midwaymeet",
		Subsystem: "search",
		Name:      "candidates_evaluated",
		Help:      "Candidate points evaluated per search",
		Buckets:   []float64{5, 10, 25, 50, 100, 200, 400},
	}, []string{"algorithm"})
)

// Middleware records request counts and latency for every HTTP request.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		method := c.Method()
		status := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the Prometheus scrape endpoint on a fiber app.
func Handler() fiber.Handler {
	return fiber.Handler(func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())(c.Context())
		return nil
	})
}
