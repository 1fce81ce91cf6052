// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gauntlet"

var (
	// OperationTransitions counts accepted lifecycle transitions.
	// Labels: status (the status entered)
	OperationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_transitions_total",
		Help:      "Total operation lifecycle transitions by target status",
	}, []string{"status"})

	// Turns counts operator turns by outcome.
	// Labels: outcome (committed, store_failed, generation_failed)
	Turns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "turns_total",
		Help:      "Total operator turns by outcome",
	}, []string{"outcome"})

	// CorpusFallbacks counts reads served from the built-in fallback corpus.
	// Labels: reason (empty, read_error)
	CorpusFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "corpus_fallback_total",
		Help:      "Total payload corpus reads served from the fallback set",
	}, []string{"reason"})

	// GenerationDuration measures generation gateway calls.
	// Labels: kind (probe, follow_up, seed, phase_seed), status (ok, error)
	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "generation_duration_seconds",
		Help:      "Generation gateway call latency in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"kind", "status"})
)

// Outcome and reason label values.
const (
	OutcomeCommitted        = "committed"
	OutcomeStoreFailed      = "store_failed"
	OutcomeGenerationFailed = "generation_failed"

	ReasonEmpty     = "empty"
	ReasonReadError = "read_error"
)
