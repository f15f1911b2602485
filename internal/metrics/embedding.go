package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding and search Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding provider requests",
		},
		[]string{"provider", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "semsearch",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	EmbeddingFailoverTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "embedding_failover_total",
			Help:      "Provider failures that triggered failover to the next provider",
		},
		[]string{"provider", "class"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "embedding_cache_total",
			Help:      "Query-embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	PipelineDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "pipeline_documents_total",
			Help:      "Documents processed by the embedding pipeline",
		},
		[]string{"mode", "result"}, // mode: "fill_gaps" / "regenerate", result: "success" / "failure"
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"mode", "status"},
	)

	SearchDimensionMismatchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "search_dimension_mismatch_total",
			Help:      "Candidates skipped because their stored vector dimension differs from the query",
		},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"namespace", "result"},
	)
)

var registered bool

// Register registers subsystem metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingFailoverTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(PipelineDocumentsTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDimensionMismatchTotal)
	prometheus.MustRegister(ResultCacheTotal)
	registered = true
}
