package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Generation Prometheus metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "generation_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "generation_request_duration_seconds",
			Help:      "Chat completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "model"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "generation_tokens_total",
			Help:      "Total chat completion tokens consumed",
		},
		[]string{"provider", "model", "type"}, // "prompt" / "completion"
	)

	GenerationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "generation_errors_total",
			Help:      "Total chat completion errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	GenerationPromptTruncationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "generation_prompt_truncations_total",
			Help:      "Prompts cut to fit the model token budget",
		},
		[]string{"provider", "model"},
	)
)

var genMetricsOnce sync.Once

// RegisterGenerationMetrics registers Prometheus generation metrics. Safe to call more than once.
func RegisterGenerationMetrics() {
	genMetricsOnce.Do(func() {
		prometheus.MustRegister(GenerationRequestsTotal)
		prometheus.MustRegister(GenerationRequestDuration)
		prometheus.MustRegister(GenerationTokensTotal)
		prometheus.MustRegister(GenerationErrorsTotal)
		prometheus.MustRegister(GenerationPromptTruncationsTotal)
	})
}
