package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSize       *prometheus.HistogramVec
	HTTPResponseSize      *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceededTotal *prometheus.CounterVec

	// Feed metrics
	FeedCompositionDuration *prometheus.HistogramVec
	FeedItemsTotal          *prometheus.CounterVec

	// Search metrics
	SearchQueriesTotal  *prometheus.CounterVec
	SearchQueryDuration *prometheus.HistogramVec

	// Session and notification metrics
	SessionsCreatedTotal prometheus.Counter
	WebSocketConnections prometheus.Gauge
	NotificationsTotal   *prometheus.CounterVec

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_size_bytes",
					Help:    "HTTP request body size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path"},
			),
			HTTPResponseSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),

			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of requests rejected by the rate limiter",
				},
				[]string{"path"},
			),

			FeedCompositionDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_composition_duration_seconds",
					Help:    "Time to fetch and compose a feed",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"source"},
			),
			FeedItemsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "feed_items_total",
					Help: "Items served in composed feeds by type",
				},
				[]string{"type"},
			),

			SearchQueriesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "search_queries_total",
					Help: "Content searches by backend and outcome",
				},
				[]string{"backend", "status"},
			),
			SearchQueryDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "search_query_duration_seconds",
					Help:    "Content search latency in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
				},
				[]string{"backend"},
			),

			SessionsCreatedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "sessions_created_total",
					Help: "Tokens issued with a new session",
				},
			),
			WebSocketConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "websocket_connections",
					Help: "Currently connected notification clients",
				},
			),
			NotificationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_total",
					Help: "Notifications by event type and delivery outcome",
				},
				[]string{"event", "outcome"},
			),

			ErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by type",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	return Initialize()
}

func RecordCacheHit(cacheName string) {
	Get().CacheHitsTotal.WithLabelValues(cacheName).Inc()
}

func RecordCacheMiss(cacheName string) {
	Get().CacheMissesTotal.WithLabelValues(cacheName).Inc()
}

func RecordRateLimitExceeded(path string) {
	Get().RateLimitExceededTotal.WithLabelValues(path).Inc()
}

// RecordFeed records one composed feed. source is "server", "client",
// "for_you" or "chronological".
func RecordFeed(source string, duration time.Duration, tweets, articles int) {
	m := Get()
	m.FeedCompositionDuration.WithLabelValues(source).Observe(duration.Seconds())
	m.FeedItemsTotal.WithLabelValues("tweet").Add(float64(tweets))
	m.FeedItemsTotal.WithLabelValues("article").Add(float64(articles))
}

// RecordSearch records a content search against backend (elasticsearch or sql).
func RecordSearch(backend string, duration time.Duration, err error) {
	m := Get()
	status := "success"
	if err != nil {
		status = "error"
	}
	m.SearchQueriesTotal.WithLabelValues(backend, status).Inc()
	m.SearchQueryDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

func RecordSessionCreated() {
	Get().SessionsCreatedTotal.Inc()
}

// RecordNotification counts a hub delivery: outcome is sent, dropped or offline.
func RecordNotification(event, outcome string) {
	Get().NotificationsTotal.WithLabelValues(event, outcome).Inc()
}

func RecordError(errorType, endpoint string) {
	Get().ErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}
