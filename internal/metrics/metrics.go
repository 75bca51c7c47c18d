// Package metrics holds the Prometheus collectors of the catalog service.
// They register with the default registry and are served on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_api_requests_total",
			Help: "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_api_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_dispatch_total",
			Help: "Resource operations dispatched, by resource, operation and response status",
		},
		[]string{"resource", "operation", "status"},
	)

	GRPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_grpc_requests_total",
			Help: "Total number of gRPC calls by method and status code",
		},
		[]string{"method", "code"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Read cache hits by resource",
		},
		[]string{"resource"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Read cache misses by resource",
		},
		[]string{"resource"},
	)

	CacheDataVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_cache_data_version",
			Help: "Current data version used to key cached reads",
		},
	)
)

func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordDispatch(resource, operation string, status int) {
	DispatchTotal.WithLabelValues(resource, operation, strconv.Itoa(status)).Inc()
}

func RecordGRPCRequest(method, code string) {
	GRPCRequestsTotal.WithLabelValues(method, code).Inc()
}

// RecordCacheLookup counts a read cache hit or miss for resource.
func RecordCacheLookup(resource string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(resource).Inc()
		return
	}
	CacheMisses.WithLabelValues(resource).Inc()
}

func SetCacheDataVersion(version uint64) {
	CacheDataVersion.Set(float64(version))
}
