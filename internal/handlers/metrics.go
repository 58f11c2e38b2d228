package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatview_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatview_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	timelineAssemblies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatview_timeline_assemblies_total",
			Help: "Timeline assemblies by result (ok, invalid).",
		},
		[]string{"result"},
	)

	activeUploads = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatview_active_uploads",
			Help: "Media uploads currently in progress.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, timelineAssemblies, activeUploads)
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
