// Package cache stores search page responses in Redis.
//
// Search APIs charge per request, and the same page of the same query is
// often requested more than once: a size lookup followed by iteration, or a
// CLI run repeated a few minutes later. The Manager keeps decoded page
// responses for a fixed TTL so those repeats never reach the network.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Endpoint: "/searchContact.json",
//		Query:    url.Values{"offset": {"0"}, "pageSize": {"50"}, "firstname": {"Ada"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then:
//		_ = manager.Set(ctx, key, cache.NewEntry(totalHits, records, 5*time.Minute))
//	}
//
// Keys never include the API token, so rotating a token keeps the cache warm
// and tokens never land in Redis.
//
// # Metrics
//
//   - datacom_cache_hits_total - Cache hits
//   - datacom_cache_misses_total - Cache misses
//   - datacom_cache_stored_bytes_total - Bytes written to Redis
//   - datacom_cache_errors_total{operation} - Cache operation errors
package cache
