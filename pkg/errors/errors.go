package errors

import "errors"

// ── 错误类别 ──
// 业务层的哨兵错误通过 %w 包装以下类别，Handler 可按类别统一映射

var (
	// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
	ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

	// ErrConcurrencyConflict 并发写入冲突：唯一约束或容量约束在存储层被触发
	ErrConcurrencyConflict = errors.New("并发写入冲突，请基于最新数据重试")

	// ErrRetryable 可重试的事务失败：死锁、序列化失败、锁等待超时
	ErrRetryable = errors.New("事务冲突，可稍后重试")

	// ErrConsistency 一致性失败：汇总重算或费率级联失败，整个事务已回滚
	ErrConsistency = errors.New("数据一致性维护失败")

	// ErrNotFound 引用的记录不存在
	ErrNotFound = errors.New("记录不存在")
)

// IsConcurrency 判断是否属于并发类错误（调用方应刷新数据后重试）
func IsConcurrency(err error) bool {
	return errors.Is(err, ErrOptimisticLock) ||
		errors.Is(err, ErrConcurrencyConflict) ||
		errors.Is(err, ErrRetryable)
}

// IsRetryable 判断是否可以原样静默重试
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}
