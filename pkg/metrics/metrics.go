// Package metrics 排班引擎指标采集。
//
// Collector 由服务层调用；NewNop 用于测试或关闭指标时，
// NewPrometheus 在首次记录时才向 Registerer 注册指标。
package metrics

// 排班尝试结果
const (
	OutcomeAssigned = "assigned"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Collector 排班引擎指标接口
type Collector interface {
	// RecordAssignAttempt 记录一次排班尝试及其结果
	RecordAssignAttempt(outcome string)
	// RecordValidationFailure 记录一次校验失败原因（每个原因计一次）
	RecordValidationFailure(reason string)
	// RecordConcurrencyConflict 记录存储层并发冲突
	RecordConcurrencyConflict(operation string)
	// ObserveRecalculation 记录一次汇总重算耗时（秒）
	ObserveRecalculation(seconds float64)
	// RecordCascade 记录一次薪资级联更新的班次数
	RecordCascade(updatedShifts int)
	// RecordShiftsGenerated 记录一次班次生成的数量
	RecordShiftsGenerated(count int)
}
