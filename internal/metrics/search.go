package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omnisearch",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"status"}, // "ok" / "partial" / "error"
	)

	ModalityQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omnisearch",
			Name:      "modality_queries_total",
			Help:      "Total shard queries per modality",
		},
		[]string{"modality", "status"},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omnisearch",
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	FusionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "omnisearch",
			Name:      "fusion_duration_seconds",
			Help:      "Score fusion duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	FanoutDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "omnisearch",
			Name:      "fanout_duration_seconds",
			Help:      "Shard fan-out duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(ModalityQueriesTotal)
	prometheus.MustRegister(ResultCacheTotal)
	prometheus.MustRegister(FusionDuration)
	prometheus.MustRegister(FanoutDuration)
	searchMetricsRegistered = true
}
