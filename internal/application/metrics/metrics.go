package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ApplicationsCreated *prometheus.CounterVec
	StatusTransitions   *prometheus.CounterVec
	TransitionRejected  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ApplicationsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "benefits_applications_created_total",
			Help: "Total applications created, by benefit code and origin (batch or manual)",
		}, []string{"benefit_code", "origin"}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "benefits_status_transitions_total",
			Help: "Total successful status transitions, by target status",
		}, []string{"to"}),
		TransitionRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "benefits_status_transitions_rejected_total",
			Help: "Total status transitions rejected as illegal",
		}),
	}
}

func (m *Metrics) RecordCreated(benefitCode, origin string) {
	m.ApplicationsCreated.WithLabelValues(benefitCode, origin).Inc()
}

func (m *Metrics) RecordTransition(to string) {
	m.StatusTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) RecordRejectedTransition() {
	m.TransitionRejected.Inc()
}
