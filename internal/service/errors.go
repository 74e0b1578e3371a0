package service

import (
	"errors"

	pkgerrors "social-catering/backend/pkg/errors"
)

// kindError 业务哨兵错误，同时归属于 pkg/errors 中的某个错误类别
// errors.Is 既能匹配哨兵本身，也能匹配其类别
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{msg: msg, kind: kind}
}

// ── 资源不存在 ──

var (
	ErrEventNotFound            = newKindError(pkgerrors.ErrNotFound, "活动不存在")
	ErrShiftNotFound            = newKindError(pkgerrors.ErrNotFound, "班次不存在")
	ErrWorkerNotFound           = newKindError(pkgerrors.ErrNotFound, "员工不存在")
	ErrAssignmentNotFound       = newKindError(pkgerrors.ErrNotFound, "排班记录不存在")
	ErrSkillRequirementNotFound = newKindError(pkgerrors.ErrNotFound, "技能需求不存在")
)

// ── 状态与参数错误 ──

var (
	ErrEventClosed          = errors.New("活动已归档或已删除，不可变更排班")
	ErrScheduleMissing      = errors.New("活动尚未设置时间表")
	ErrNoSkillRequirements  = errors.New("活动没有技能需求，无法生成班次")
	ErrInvalidScheduleRange = errors.New("结束时间必须晚于开始时间")
	ErrInvalidTransition    = errors.New("当前排班状态不允许该操作")
	ErrAssignmentInactive   = errors.New("排班已取消或缺勤，不可修改工时")
	ErrShiftNotEnded        = errors.New("班次尚未结束")
	ErrNotApproved          = errors.New("排班尚未审批")
	ErrAssignmentHasHours   = errors.New("已记录工时的排班不可删除，请改为移出活动")
	ErrHoursRequired        = errors.New("需提供工时或实际上下班时间")
	ErrInvalidHours         = errors.New("工时超出允许范围")
	ErrInvalidClockTimes    = errors.New("下班时间必须晚于上班时间")
	ErrNotClockedIn         = errors.New("尚未上班打卡")
	ErrInvalidPayRate       = errors.New("费率不能为负数")
	ErrScheduleOverlap      = errors.New("调整后员工的有效排班时间重叠")
)

var businessErrors = []error{
	ErrEventClosed, ErrScheduleMissing, ErrNoSkillRequirements, ErrInvalidScheduleRange,
	ErrInvalidTransition, ErrAssignmentInactive, ErrShiftNotEnded, ErrNotApproved,
	ErrAssignmentHasHours, ErrHoursRequired, ErrInvalidHours, ErrInvalidClockTimes,
	ErrNotClockedIn, ErrInvalidPayRate, ErrScheduleOverlap,
}

// isBusinessError 判断是否为可预期的业务错误（参数或状态不满足）
func isBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
