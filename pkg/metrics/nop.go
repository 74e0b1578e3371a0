package metrics

// NopMetrics 丢弃所有指标
type NopMetrics struct{}

var _ Collector = (*NopMetrics)(nil)

// NewNop 创建空实现
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

func (n *NopMetrics) RecordAssignAttempt(_ /* outcome */ string) {}

func (n *NopMetrics) RecordValidationFailure(_ /* reason */ string) {}

func (n *NopMetrics) RecordConcurrencyConflict(_ /* operation */ string) {}

func (n *NopMetrics) ObserveRecalculation(_ /* seconds */ float64) {}

func (n *NopMetrics) RecordCascade(_ /* updatedShifts */ int) {}

func (n *NopMetrics) RecordShiftsGenerated(_ /* count */ int) {}
