package metrics

import "github.com/prometheus/client_golang/prometheus"

// SimilarityMetrics tracks pairwise-score cache effectiveness.
type SimilarityMetrics struct {
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	comparisons *prometheus.CounterVec
}

func NewSimilarityMetrics(registry *prometheus.Registry) *SimilarityMetrics {
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "similarity",
		Name:      "cache_hits_total",
		Help:      "Pairwise score lookups served from cache.",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "similarity",
		Name:      "cache_misses_total",
		Help:      "Pairwise score lookups that required full computation.",
	})
	comparisons := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "similarity",
			Name:      "comparisons_total",
			Help:      "Full vectorization-and-score computations by algorithm.",
		},
		[]string{"algorithm"},
	)

	if registry != nil {
		registry.MustRegister(cacheHits, cacheMisses, comparisons)
	}

	return &SimilarityMetrics{
		cacheHits:   cacheHits,
		cacheMisses: cacheMisses,
		comparisons: comparisons,
	}
}

func (m *SimilarityMetrics) CacheHit()  { m.cacheHits.Inc() }
func (m *SimilarityMetrics) CacheMiss() { m.cacheMisses.Inc() }

func (m *SimilarityMetrics) ComparisonDone(algorithm string) {
	m.comparisons.WithLabelValues(algorithm).Inc()
}
