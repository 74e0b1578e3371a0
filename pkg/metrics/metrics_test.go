package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopMetrics_NoPanic(t *testing.T) {
	m := NewNop()
	require.NotPanics(t, func() {
		m.RecordAssignAttempt(OutcomeAssigned)
		m.RecordValidationFailure("capacity_exceeded")
		m.RecordConcurrencyConflict("assign")
		m.ObserveRecalculation(0.01)
		m.RecordCascade(0)
		m.RecordShiftsGenerated(-1)
	})
}

func TestPrometheusCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordAssignAttempt(OutcomeAssigned)
	p.RecordAssignAttempt(OutcomeAssigned)
	p.RecordAssignAttempt(OutcomeRejected)
	p.RecordValidationFailure("missing_skill")
	p.RecordConcurrencyConflict("assign")
	p.ObserveRecalculation(0.002)
	p.RecordCascade(2)
	p.RecordShiftsGenerated(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.assignAttempts.WithLabelValues(OutcomeAssigned)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.assignAttempts.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.validationFailures.WithLabelValues("missing_skill")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.conflicts.WithLabelValues("assign")))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.shiftsGenerated))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_event_recalculation_seconds")
	assert.Contains(t, names, "test_pay_rate_cascade_shifts")
}

func TestNewPrometheus_Defaults(t *testing.T) {
	p := NewPrometheus(nil, "")
	assert.Equal(t, "catering", p.namespace)
	assert.Equal(t, prometheus.DefaultRegisterer, p.reg)
}
