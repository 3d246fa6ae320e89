package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Playback engine counters.
	ProgressWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_progress_writes_total",
			Help: "Progress snapshots persisted through the gateway",
		},
		[]string{"outcome"},
	)

	SeekSnapbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "video_seek_snapbacks_total",
			Help: "Seeks past the verified position forced back by the tracker",
		},
	)

	VideoCompletions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "video_completions_total",
			Help: "Videos crossing the completion threshold",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ProgressWrites)
	prometheus.MustRegister(SeekSnapbacks)
	prometheus.MustRegister(VideoCompletions)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
