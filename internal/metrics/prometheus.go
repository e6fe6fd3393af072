package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the private Prometheus registry for this service
var Registry = prometheus.NewRegistry()

var (
	// FeedFetchDuration measures feed fetch latency (seconds)
	FeedFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "delivery_feed_fetch_duration_seconds",
			Help:    "Delivery feed fetch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		[]string{"status"},
	)

	// HTTPRequestDuration measures HTTP handler latency (seconds)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// DeliveriesLoaded is the size of the normalized list after the last load
	DeliveriesLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "deliveries_loaded",
			Help: "Number of top-level deliveries in the current list",
		},
	)

	// SearchCount counts searches by cache outcome
	SearchCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_search_total",
			Help: "Total number of delivery searches",
		},
		[]string{"cache"}, // hit, miss
	)
)

func init() {
	Registry.MustRegister(
		FeedFetchDuration,
		HTTPRequestDuration,
		DeliveriesLoaded,
		SearchCount,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveFetch records a feed fetch outcome
func ObserveFetch(status string, duration time.Duration) {
	FeedFetchDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// ObserveHTTPRequest records an HTTP request
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// Handler exposes the private registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
