package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	barsIngested     *prometheus.CounterVec
	signalsGenerated *prometheus.CounterVec
	labelsAssigned   *prometheus.CounterVec
	accuracy         *prometheus.GaugeVec
	errorsTotal      *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		barsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigpipe_bars_ingested_total",
				Help: "Total number of bars written to a backend",
			},
			[]string{"backend", "symbol"},
		),
		signalsGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigpipe_signals_generated_total",
				Help: "Total number of signals generated",
			},
			[]string{"symbol"},
		),
		labelsAssigned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigpipe_labels_assigned_total",
				Help: "Total number of signals graded",
			},
			[]string{"symbol", "outcome"},
		),
		accuracy: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sigpipe_accuracy_ratio",
				Help: "Latest evaluated accuracy per symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigpipe_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sigpipe_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordBarIngested records a bar written to a backend.
func (r *Recorder) RecordBarIngested(backend, symbol string) {
	r.barsIngested.WithLabelValues(backend, symbol).Inc()
}

// RecordSignalGenerated records a generated signal.
func (r *Recorder) RecordSignalGenerated(symbol string) {
	r.signalsGenerated.WithLabelValues(symbol).Inc()
}

// RecordLabelAssigned records a graded signal.
func (r *Recorder) RecordLabelAssigned(symbol string, win bool) {
	outcome := "loss"
	if win {
		outcome = "win"
	}
	r.labelsAssigned.WithLabelValues(symbol, outcome).Inc()
}

// RecordAccuracy records the latest evaluated accuracy for a symbol.
func (r *Recorder) RecordAccuracy(symbol string, accuracy float64) {
	r.accuracy.WithLabelValues(symbol).Set(accuracy)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordStageDuration records pipeline stage duration in seconds.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}
