package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks page responses served from Redis
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datacom_cache_hits_total",
			Help: "Total number of search page cache hits",
		},
	)

	// CacheMisses tracks lookups that had to go to the API
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datacom_cache_misses_total",
			Help: "Total number of search page cache misses",
		},
	)

	// CacheStoredBytes tracks bytes written to Redis
	CacheStoredBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datacom_cache_stored_bytes_total",
			Help: "Total bytes of search pages written to the cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datacom_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
