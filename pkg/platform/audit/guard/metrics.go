package guard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks what the guards let through or drop, per sink.
// A nil *Metrics records nothing.
type Metrics struct {
	Appended         *prometheus.CounterVec
	Sampled          *prometheus.CounterVec
	BreakerDropped   *prometheus.CounterVec
	AppendFailures   *prometheus.CounterVec
	BreakerOpenGauge *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Appended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reliefledger_audit_appended_total",
			Help: "Audit events accepted by a sink",
		}, []string{"sink"}),
		Sampled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reliefledger_audit_sampled_total",
			Help: "Operations audit events dropped by sampling",
		}, []string{"sink"}),
		BreakerDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reliefledger_audit_breaker_dropped_total",
			Help: "Audit events dropped because the sink circuit was open",
		}, []string{"sink"}),
		AppendFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reliefledger_audit_append_failures_total",
			Help: "Audit events a sink failed to accept",
		}, []string{"sink"}),
		BreakerOpenGauge: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reliefledger_audit_breaker_open",
			Help: "Sink circuit state (0=closed, 1=open)",
		}, []string{"sink"}),
	}
}

func (m *Metrics) incAppended(sink string) {
	if m != nil {
		m.Appended.WithLabelValues(sink).Inc()
	}
}

func (m *Metrics) incSampled(sink string) {
	if m != nil {
		m.Sampled.WithLabelValues(sink).Inc()
	}
}

func (m *Metrics) incBreakerDropped(sink string) {
	if m != nil {
		m.BreakerDropped.WithLabelValues(sink).Inc()
	}
}

func (m *Metrics) incAppendFailures(sink string) {
	if m != nil {
		m.AppendFailures.WithLabelValues(sink).Inc()
	}
}

func (m *Metrics) setBreakerOpen(sink string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.BreakerOpenGauge.WithLabelValues(sink).Set(v)
}
