package payroll

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wage"

// Metrics counts engine runs. Each Service owns its collectors, registered
// on the Registerer it was given.
type Metrics struct {
	monthsComputed *prometheus.CounterVec
	computeSeconds prometheus.Histogram
	diagnostics    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		monthsComputed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "months_computed_total",
				Help:      "Count of person-months computed by status.",
			},
			[]string{"status"},
		),
		computeSeconds: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "month_compute_duration_seconds",
				Help:      "Time spent computing one person-month, storage reads included.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		diagnostics: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Count of data-quality diagnostics by code.",
			},
			[]string{"code"},
		),
	}
}

func (m *Metrics) observe(status string, seconds float64) {
	if m == nil {
		return
	}
	m.monthsComputed.WithLabelValues(status).Inc()
	if status == statusOK {
		m.computeSeconds.Observe(seconds)
	}
}

func (m *Metrics) countDiagnostic(code string) {
	if m == nil {
		return
	}
	m.diagnostics.WithLabelValues(code).Inc()
}
