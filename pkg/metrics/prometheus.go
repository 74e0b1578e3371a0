package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector 基于 Prometheus 的 Collector 实现
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	assignAttempts     *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	conflicts          *prometheus.CounterVec
	recalcLatency      prometheus.Histogram
	cascadeShifts      prometheus.Histogram
	shiftsGenerated    prometheus.Counter
}

var _ Collector = (*PrometheusCollector)(nil)

// NewPrometheus 创建 Prometheus 采集器；reg 为空时使用默认 Registerer
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "catering"
	}
	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.assignAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "assignment",
			Name:      "attempts_total",
			Help:      "Assignment attempts by outcome (assigned, rejected, conflict, error).",
		}, []string{"outcome"})

		p.validationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "assignment",
			Name:      "validation_failures_total",
			Help:      "Validation failure reasons reported to callers.",
		}, []string{"reason"})

		p.conflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "storage",
			Name:      "concurrency_conflicts_total",
			Help:      "Writes rejected by version checks or storage constraints, by operation.",
		}, []string{"operation"})

		p.recalcLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "event",
			Name:      "recalculation_seconds",
			Help:      "Latency of event aggregate recalculation in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
		})

		p.cascadeShifts = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "pay_rate",
			Name:      "cascade_shifts",
			Help:      "Shifts updated per pay-rate cascade.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		})

		p.shiftsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "event",
			Name:      "shifts_generated_total",
			Help:      "Shifts created by event publication or explicit generation.",
		})

		p.reg.MustRegister(p.assignAttempts)
		p.reg.MustRegister(p.validationFailures)
		p.reg.MustRegister(p.conflicts)
		p.reg.MustRegister(p.recalcLatency)
		p.reg.MustRegister(p.cascadeShifts)
		p.reg.MustRegister(p.shiftsGenerated)
	})
}

func (p *PrometheusCollector) RecordAssignAttempt(outcome string) {
	p.ensureRegistered()
	p.assignAttempts.WithLabelValues(outcome).Inc()
}

func (p *PrometheusCollector) RecordValidationFailure(reason string) {
	p.ensureRegistered()
	p.validationFailures.WithLabelValues(reason).Inc()
}

func (p *PrometheusCollector) RecordConcurrencyConflict(operation string) {
	p.ensureRegistered()
	p.conflicts.WithLabelValues(operation).Inc()
}

func (p *PrometheusCollector) ObserveRecalculation(seconds float64) {
	p.ensureRegistered()
	p.recalcLatency.Observe(seconds)
}

func (p *PrometheusCollector) RecordCascade(updatedShifts int) {
	p.ensureRegistered()
	p.cascadeShifts.Observe(float64(updatedShifts))
}

func (p *PrometheusCollector) RecordShiftsGenerated(count int) {
	p.ensureRegistered()
	p.shiftsGenerated.Add(float64(count))
}
