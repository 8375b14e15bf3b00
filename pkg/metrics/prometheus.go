package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domrepo "StakeWatch/internal/domain/repository"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	evaluations     *prometheus.CounterVec
	componentScores *prometheus.GaugeVec
	riskScores      *prometheus.GaugeVec
	cacheLookups    *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		evaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stakewatch_evaluations_total",
				Help: "Total number of risk evaluations by outcome",
			},
			[]string{"outcome"},
		),
		componentScores: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stakewatch_component_score",
				Help: "Last computed component score by component",
			},
			[]string{"component"},
		),
		riskScores: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stakewatch_overall_risk_score",
				Help: "Last computed composite risk score per user",
			},
			[]string{"user"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stakewatch_cache_lookups_total",
				Help: "Result cache lookups by kind and result",
			},
			[]string{"kind", "result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stakewatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stakewatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvaluation records a completed evaluation by outcome.
func (r *Recorder) RecordEvaluation(outcome string) {
	r.evaluations.WithLabelValues(outcome).Inc()
}

// RecordComponentScore records the last score of one component.
func (r *Recorder) RecordComponentScore(component string, score float64) {
	r.componentScores.WithLabelValues(component).Set(score)
}

// RecordRiskScore records the last composite score for a user.
func (r *Recorder) RecordRiskScore(userAddress string, score float64) {
	r.riskScores.WithLabelValues(userAddress).Set(score)
}

// RecordCacheLookup records one result-cache lookup.
func (r *Recorder) RecordCacheLookup(kind domrepo.MetricKind, result string) {
	r.cacheLookups.WithLabelValues(string(kind), result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

var _ domrepo.Metrics = (*Recorder)(nil)
