package providers

import (
	"chatpulse/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DatasetCounter reports current in-memory dataset sizes for the gauges.
type DatasetCounter interface {
	GroupCount() int
	UserCount() int
}

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncEventsProcessed()
	IncEventsDropped()
	IncMetaHits()
	IncMetaMisses()
	IncMetaStaleServed()
	ObserveFlushDuration(dataset string, duration time.Duration)
	IncFlushErrors(dataset string)
	IncBackupsCreated()
	IncBackupsSwept()
}

type MetricsProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	eventsProcessed prometheus.Counter
	eventsDropped   prometheus.Counter
	metaHits        prometheus.Counter
	metaMisses      prometheus.Counter
	metaStaleServed prometheus.Counter
	flushDuration   *prometheus.HistogramVec
	flushErrors     *prometheus.CounterVec
	backupsCreated  prometheus.Counter
	backupsSwept    prometheus.Counter
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncEventsProcessed() {
	m.eventsProcessed.Inc()
}

func (m *MetricsProvider) IncEventsDropped() {
	m.eventsDropped.Inc()
}

func (m *MetricsProvider) IncMetaHits() {
	m.metaHits.Inc()
}

func (m *MetricsProvider) IncMetaMisses() {
	m.metaMisses.Inc()
}

func (m *MetricsProvider) IncMetaStaleServed() {
	m.metaStaleServed.Inc()
}

func (m *MetricsProvider) ObserveFlushDuration(dataset string, duration time.Duration) {
	m.flushDuration.WithLabelValues(dataset).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncFlushErrors(dataset string) {
	m.flushErrors.WithLabelValues(dataset).Inc()
}

func (m *MetricsProvider) IncBackupsCreated() {
	m.backupsCreated.Inc()
}

func (m *MetricsProvider) IncBackupsSwept() {
	m.backupsSwept.Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, datasets DatasetCounter) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatpulse_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chatpulse_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatpulse_cache_hits_total",
			Help: "Total number of response cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatpulse_cache_misses_total",
			Help: "Total number of response cache misses",
		}),

		eventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatpulse_events_processed_total",
			Help: "Total number of message events applied to the datasets",
		}),

		eventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatpulse_events_dropped_total",
			Help: "Total number of message events dropped during processing",
		}),

		metaHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatpulse_metadata_cache_hits_total",
			Help: "Total number of fresh group metadata cache hits",
		}),

		metaMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatpulse_metadata_cache_misses_total",
			Help: "Total number of group metadata cache misses",
		}),

		metaStaleServed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatpulse_metadata_cache_stale_served_total",
			Help: "Total number of stale metadata entries served after a failed refresh",
		}),

		flushDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chatpulse_flush_duration_seconds",
			Help:    "Duration of dataset flushes in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"dataset"}),

		flushErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatpulse_flush_errors_total",
			Help: "Total number of failed dataset flushes",
		}, []string{"dataset"}),

		backupsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatpulse_backups_created_total",
			Help: "Total number of backup files created",
		}),

		backupsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatpulse_backups_swept_total",
			Help: "Total number of backup files removed by the sweeper",
		}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "chatpulse_groups_total",
		Help: "Current number of tracked groups",
	}, func() float64 {
		return float64(datasets.GroupCount())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "chatpulse_users_total",
		Help: "Current number of tracked users",
	}, func() float64 {
		return float64(datasets.UserCount())
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncEventsProcessed()                              {}
func (n *noopMetrics) IncEventsDropped()                                {}
func (n *noopMetrics) IncMetaHits()                                     {}
func (n *noopMetrics) IncMetaMisses()                                   {}
func (n *noopMetrics) IncMetaStaleServed()                              {}
func (n *noopMetrics) ObserveFlushDuration(_ string, _ time.Duration)   {}
func (n *noopMetrics) IncFlushErrors(_ string)                          {}
func (n *noopMetrics) IncBackupsCreated()                               {}
func (n *noopMetrics) IncBackupsSwept()                                 {}
