package metrics

import (
	"strconv"

	"ContraTrack/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	analyses  *prometheus.CounterVec
	ingested  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	lastRunTS *prometheus.GaugeVec
}

// New registers the recorder on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the recorder on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contratrack_analyses_total",
				Help: "Completed analyses by symbol, verdict rule and verdict",
			},
			[]string{"symbol", "rule", "inverse_effective"},
		),
		ingested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contratrack_ingested_records_total",
				Help: "Records ingested per source and symbol",
			},
			[]string{"source", "symbol"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contratrack_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contratrack_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		lastRunTS: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "contratrack_last_analysis_timestamp_seconds",
				Help: "Unix time of the last completed analysis per symbol",
			},
			[]string{"symbol"},
		),
	}
	reg.MustRegister(r.analyses, r.ingested, r.errors, r.latency, r.lastRunTS)
	return r
}

// RecordAnalysis counts a finished analysis.
func (r *Recorder) RecordAnalysis(symbol string, rule models.VerdictRule, effective bool) {
	r.analyses.WithLabelValues(symbol, string(rule), strconv.FormatBool(effective)).Inc()
	r.lastRunTS.WithLabelValues(symbol).SetToCurrentTime()
}

// RecordIngested adds n ingested records.
func (r *Recorder) RecordIngested(source, symbol string, n int) {
	r.ingested.WithLabelValues(source, symbol).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errors.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
