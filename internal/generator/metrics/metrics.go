package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Runs        *prometheus.CounterVec
	Scanned     prometheus.Counter
	RunDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "benefits_generation_runs_total",
			Help: "Total generation batch runs, by outcome",
		}, []string{"outcome"}),
		Scanned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "benefits_generation_beneficiaries_scanned_total",
			Help: "Total beneficiary records scanned by generation runs",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "benefits_generation_run_duration_seconds",
			Help:    "Wall-clock duration of generation batch runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

func (m *Metrics) RecordRun(outcome string, seconds float64, scanned int) {
	m.Runs.WithLabelValues(outcome).Inc()
	m.Scanned.Add(float64(scanned))
	m.RunDuration.Observe(seconds)
}
