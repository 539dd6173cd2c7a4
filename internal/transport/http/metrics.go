package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "flashbattle"

var knownEvents = map[string]struct{}{
	"login":               {},
	"create_room":         {},
	"join_room":           {},
	"list_banks":          {},
	"load_bank_questions": {},
	"delete_bank":         {},
	"import_bank_text":    {},
	"start_room_exam":     {},
	"delete_room":         {},
}

// Metrics holds the Prometheus collectors exposed on /metrics.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	WSConnections   prometheus.Gauge
	WSEvents        *prometheus.CounterVec
}

// NewMetrics creates collectors on a private registry so several servers can
// coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "ws",
				Name:      "connections",
				Help:      "Open websocket connections",
			},
		),
		WSEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "ws",
				Name:      "events_total",
				Help:      "Inbound websocket events by type",
			},
			[]string{"event"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// middleware records count and latency per matched route.
func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) connOpened() {
	if m != nil {
		m.WSConnections.Inc()
	}
}

func (m *Metrics) connClosed() {
	if m != nil {
		m.WSConnections.Dec()
	}
}

// observeEvent folds unknown types into one label to bound cardinality.
func (m *Metrics) observeEvent(event string) {
	if m == nil {
		return
	}
	if _, ok := knownEvents[event]; !ok {
		event = "unknown"
	}
	m.WSEvents.WithLabelValues(event).Inc()
}
