package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions   *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPredicted *prometheus.GaugeVec
	unknownCounty *prometheus.CounterVec
	auditWritten  *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evdemand_predictions_total",
				Help: "Total number of prediction requests by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evdemand_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPredicted: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "evdemand_last_predicted_total",
				Help: "Last predicted next-month EV total for a county",
			},
			[]string{"county"},
		),
		unknownCounty: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evdemand_unknown_county_total",
				Help: "Requests whose county fell back to the default code",
			},
			[]string{"source"},
		),
		auditWritten: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evdemand_audit_records_total",
				Help: "Prediction records written to the audit sink",
			},
			[]string{"backend"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evdemand_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction counts a prediction outcome ("ok", "validation", "model").
func (r *Recorder) RecordPrediction(source, outcome string) {
	r.predictions.WithLabelValues(source, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPredicted records the last predicted total for a county.
func (r *Recorder) RecordLastPredicted(county string, value float64) {
	r.lastPredicted.WithLabelValues(county).Set(value)
}

// RecordUnknownCounty counts a lenient county fallback. The county itself is
// not a label since it is caller-controlled.
func (r *Recorder) RecordUnknownCounty(source string) {
	r.unknownCounty.WithLabelValues(source).Inc()
}

// RecordAuditWritten counts a record accepted by an audit sink.
func (r *Recorder) RecordAuditWritten(backend string) {
	r.auditWritten.WithLabelValues(backend).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
