// Package metrics instruments the msgr2 client connection with
// Prometheus counters and histograms, grounded on the teacher's
// promauto-based metrics packages (pkg/metrics/cache.go, s3.go):
// a lazily created registry, nil-safe recorder methods, and Vec
// metrics labeled by the dimension that varies (frame tag, auth
// method, handshake result).
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu       sync.Mutex
	enabled  bool
	registry *prometheus.Registry
	conn     *ConnectionMetrics
)

// Init creates the Prometheus registry this package's metrics register
// into. Recording methods are nil-safe no-ops until this is called, so
// callers that don't want metrics can simply skip it.
func Init() *ConnectionMetrics {
	mu.Lock()
	defer mu.Unlock()
	if enabled {
		return conn
	}
	enabled = true
	registry = prometheus.NewRegistry()
	conn = newConnectionMetrics(registry)
	return conn
}

// IsEnabled reports whether Init has been called.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Handler returns the Prometheus scrape handler for the registry Init
// created, or nil if metrics haven't been enabled.
func Handler() http.Handler {
	mu.Lock()
	defer mu.Unlock()
	if registry == nil {
		return nil
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ConnectionMetrics tracks frame traffic and handshake outcomes for one
// or more msgr2 client connections.
type ConnectionMetrics struct {
	framesSent       *prometheus.CounterVec
	framesReceived   *prometheus.CounterVec
	bytesSent        *prometheus.CounterVec
	bytesReceived    *prometheus.CounterVec
	handshakeSeconds *prometheus.HistogramVec
	handshakeResult  *prometheus.CounterVec
	activeConns      prometheus.Gauge
}

func newConnectionMetrics(reg *prometheus.Registry) *ConnectionMetrics {
	return &ConnectionMetrics{
		framesSent: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "cephmsgr_frames_sent_total",
			Help: "Frames sent by tag.",
		}, []string{"tag"}),
		framesReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "cephmsgr_frames_received_total",
			Help: "Frames received by tag.",
		}, []string{"tag"}),
		bytesSent: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "cephmsgr_bytes_sent_total",
			Help: "Wire bytes sent by tag.",
		}, []string{"tag"}),
		bytesReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "cephmsgr_bytes_received_total",
			Help: "Wire bytes received by tag.",
		}, []string{"tag"}),
		handshakeSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cephmsgr_handshake_duration_seconds",
			Help:    "Time from banner exchange to Active, by auth method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"auth_method"}),
		handshakeResult: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "cephmsgr_handshake_results_total",
			Help: "Handshake outcomes by auth method and result.",
		}, []string{"auth_method", "result"}),
		activeConns: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "cephmsgr_active_connections",
			Help: "Connections currently in the Active state.",
		}),
	}
}

// RecordFrameSent records one outbound frame of the given tag and size.
func (m *ConnectionMetrics) RecordFrameSent(tag string, bytes int) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(tag).Inc()
	m.bytesSent.WithLabelValues(tag).Add(float64(bytes))
}

// RecordFrameReceived records one inbound frame of the given tag and size.
func (m *ConnectionMetrics) RecordFrameReceived(tag string, bytes int) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(tag).Inc()
	m.bytesReceived.WithLabelValues(tag).Add(float64(bytes))
}

// RecordHandshake records a completed (successful or failed) handshake.
func (m *ConnectionMetrics) RecordHandshake(authMethod string, seconds float64, ok bool) {
	if m == nil {
		return
	}
	m.handshakeSeconds.WithLabelValues(authMethod).Observe(seconds)
	result := "success"
	if !ok {
		result = "failure"
	}
	m.handshakeResult.WithLabelValues(authMethod, result).Inc()
}

// ConnectionOpened/ConnectionClosed track the active-connection gauge.
func (m *ConnectionMetrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.activeConns.Inc()
}

func (m *ConnectionMetrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.activeConns.Dec()
}
