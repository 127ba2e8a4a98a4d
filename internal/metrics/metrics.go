// Package metrics holds the bot's Prometheus collectors and the HTTP server
// exposing them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
	StatusTimeout  = "timeout"
)

// Broadcast delivery results.
const (
	DeliveryOK     = "ok"
	DeliveryFailed = "failed"
)

// Metrics is the set of collectors used across the bot. All methods are
// safe on a nil receiver so callers may run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	generations          *prometheus.CounterVec
	generationDuration   *prometheus.HistogramVec
	generationAttempts   prometheus.Histogram
	quotaDenials         prometheus.Counter
	busyRejections       prometheus.Counter
	broadcastDeliveries  *prometheus.CounterVec
	subscriptionFailures prometheus.Counter
	storageErrors        *prometheus.CounterVec
	activeSessions       prometheus.GaugeFunc
}

// New registers all collectors on registry. A nil registry gets a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "poster_generations_total",
			Help: "Post generations by platform and status",
		}, []string{"platform", "status"}),
		generationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "poster_generation_duration_seconds",
			Help:    "Wall time of a generation including retries",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60},
		}, []string{"platform"}),
		generationAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "poster_generation_attempts",
			Help:    "Attempts needed per generation",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),
		quotaDenials: factory.NewCounter(prometheus.CounterOpts{
			Name: "poster_quota_denials_total",
			Help: "Requests rejected by the daily limit",
		}),
		busyRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "poster_busy_rejections_total",
			Help: "Messages rejected because the same user had a request in flight",
		}),
		broadcastDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "poster_broadcast_deliveries_total",
			Help: "Broadcast deliveries by result",
		}, []string{"result"}),
		subscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "poster_subscription_check_failures_total",
			Help: "Channel membership lookups that errored",
		}),
		storageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "poster_storage_errors_total",
			Help: "Storage failures by operation",
		}, []string{"op"}),
	}
}

// Registry exposes the underlying registry for the HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// TrackSessions exports the number of active sessions as a gauge.
func (m *Metrics) TrackSessions(active func() int) {
	if m == nil || m.activeSessions != nil {
		return
	}
	m.activeSessions = promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "poster_active_sessions",
		Help: "Users currently inside the generate flow",
	}, func() float64 { return float64(active()) })
}

func (m *Metrics) ObserveGeneration(platform, status string, attempts int, took time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(platform, status).Inc()
	m.generationDuration.WithLabelValues(platform).Observe(took.Seconds())
	if attempts > 0 {
		m.generationAttempts.Observe(float64(attempts))
	}
}

func (m *Metrics) QuotaDenied() {
	if m == nil {
		return
	}
	m.quotaDenials.Inc()
}

func (m *Metrics) BusyRejected() {
	if m == nil {
		return
	}
	m.busyRejections.Inc()
}

func (m *Metrics) BroadcastDelivery(result string) {
	if m == nil {
		return
	}
	m.broadcastDeliveries.WithLabelValues(result).Inc()
}

func (m *Metrics) SubscriptionCheckFailed() {
	if m == nil {
		return
	}
	m.subscriptionFailures.Inc()
}

func (m *Metrics) StorageError(op string) {
	if m == nil {
		return
	}
	m.storageErrors.WithLabelValues(op).Inc()
}
