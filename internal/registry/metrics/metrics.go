package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for OperationsTotal.
const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeUnauthorized = "unauthorized"
	OutcomeRejected     = "rejected"
)

// Metrics provides observability for the registry services.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RecordsCreated    *prometheus.CounterVec
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New registers the registry metrics with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the registry metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reliefledger_records_created_total",
			Help: "Total number of ledger records created",
		}, []string{"registry"}),
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reliefledger_operations_total",
			Help: "Ledger operations by registry, operation and outcome",
		}, []string{"registry", "operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reliefledger_operation_duration_seconds",
			Help:    "Duration of registry service operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"registry", "operation"}),
	}
}

// IncrementRecordsCreated records a successful create.
func (m *Metrics) IncrementRecordsCreated(registry string) {
	if m == nil {
		return
	}
	m.RecordsCreated.WithLabelValues(registry).Inc()
}

// ObserveOperation counts one operation and records its duration.
// Call with time.Now() taken at the start of the operation.
func (m *Metrics) ObserveOperation(registry, operation, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(registry, operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(registry, operation).Observe(time.Since(start).Seconds())
}
