package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "podscout",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		},
		[]string{"stage", "status"},
	)

	FallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "podscout",
			Name:      "pipeline_fallback_total",
			Help:      "Confidence gate outcomes",
		},
		[]string{"reason"}, // "low_confidence" / "too_few_candidates" / "not_triggered"
	)

	RetrievalCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "podscout",
			Name:      "retrieval_candidates",
			Help:      "Candidates returned per retrieval",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		},
		[]string{"status"},
	)

	RequestConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "podscout",
			Name:      "answer_confidence",
			Help:      "Final answer confidence",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(FallbackTotal)
	prometheus.MustRegister(RetrievalCandidates)
	prometheus.MustRegister(RequestConfidence)
	pipelineMetricsRegistered = true
}
