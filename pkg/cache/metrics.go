package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation counters are labeled by verb so dashboards can break traffic down without
// one metric per operation. Outcome counters (hits, evictions, ...) stay separate
// because they are the numbers alerting actually looks at.
var (
	operationsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mango_cache_operations_total",
		Help: "The total number of cache operations, by verb.",
	}, []string{"op"})

	hitsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mango_cache_hits_total",
		Help: "The total number of reads that returned a live value.",
	})
	missesMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mango_cache_misses_total",
		Help: "The total number of reads that found no live value.",
	})
	evictionsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mango_cache_evictions_total",
		Help: "The total number of entries evicted to make room for new ones.",
	})
	expirationsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mango_cache_expirations_total",
		Help: "The total number of entries removed because their TTL had passed.",
	})
	rejectedKeysMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mango_cache_rejected_keys_total",
		Help: "The total number of operations rejected due to an empty or whitespace key.",
	})
)
