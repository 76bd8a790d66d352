// Package metrics exposes the Prometheus metrics of the data.com client.
// Metrics are defined in their own packages (client, search, cache) via
// promauto; this package serves them and documents the catalogue.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package-level metric lands in.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source Handler reads from.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// NewServer returns an HTTP server on addr serving /metrics and /health.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", healthHandler)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - datacom_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - datacom_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - datacom_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//
// Search Metrics (pkg/search):
//   - datacom_search_pages_fetched_total{kind} (Counter): Fetches issued by collections ("count", "page")
//   - datacom_search_records_visited_total (Counter): Records handed to visitors
//
// Cache Metrics (pkg/cache):
//   - datacom_cache_hits_total (Counter): Pages served from Redis
//   - datacom_cache_misses_total (Counter): Pages not in Redis
//   - datacom_cache_stored_bytes_total (Counter): Bytes written to Redis
//   - datacom_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(datacom_cache_hits_total[5m])) /
//   (sum(rate(datacom_cache_hits_total[5m])) + sum(rate(datacom_cache_misses_total[5m])))
//
//   # Count-only share of fetches
//   rate(datacom_search_pages_fetched_total{kind="count"}[5m]) /
//   rate(datacom_search_pages_fetched_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(datacom_request_duration_seconds_bucket[5m]))
