package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_CountsByLabel(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncrementRecordsCreated("equipment")
	m.IncrementRecordsCreated("equipment")
	m.ObserveOperation("equipment", "set_status", OutcomeUnauthorized, time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsCreated.WithLabelValues("equipment")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RecordsCreated.WithLabelValues("return")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("equipment", "set_status", OutcomeUnauthorized)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementRecordsCreated("equipment")
		m.ObserveOperation("equipment", "create", OutcomeOK, time.Now())
	})
}
