package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "aiinspire",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aiinspire",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aiinspire",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
	}, []string{"method", "route"})

	SpiritTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aiinspire",
		Subsystem: "spirit",
		Name:      "transitions_total",
		Help:      "Spirit post status transitions by action and outcome.",
	}, []string{"action", "outcome"})

	Redemptions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aiinspire",
		Subsystem: "membership",
		Name:      "redemptions_total",
		Help:      "Redemption code attempts by outcome.",
	}, []string{"outcome"})

	Uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aiinspire",
		Subsystem: "upload",
		Name:      "files_total",
		Help:      "Uploaded files by storage backend and media kind.",
	}, []string{"backend", "kind"})

	WebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "aiinspire",
		Subsystem: "ws",
		Name:      "connections",
		Help:      "Open websocket connections.",
	})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		SpiritTransitions,
		Redemptions,
		Uploads,
		WebSocketClients,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
