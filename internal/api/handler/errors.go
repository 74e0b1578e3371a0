package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-catering/backend/internal/service"
	pkgerrors "social-catering/backend/pkg/errors"
	"social-catering/backend/pkg/response"
)

// handleEngineError 统一处理排班引擎的业务错误
// 不存在 → 404；并发冲突 → 409；状态不允许 → 409；参数错误 → 400；一致性失败 → 500
func handleEngineError(c *gin.Context, err error) {
	switch {
	// ── 不存在 ──
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 20001, "活动不存在")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 20002, "班次不存在")
	case errors.Is(err, service.ErrWorkerNotFound):
		response.NotFound(c, 20003, "员工不存在")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 20004, "排班记录不存在")
	case errors.Is(err, service.ErrSkillRequirementNotFound):
		response.NotFound(c, 20005, "技能需求不存在")

	// ── 并发 ──
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 20101, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, pkgerrors.ErrConcurrencyConflict):
		response.Conflict(c, 20102, "并发写入冲突，请基于最新数据重试")
	case errors.Is(err, pkgerrors.ErrRetryable):
		response.Conflict(c, 20103, "事务冲突，可稍后重试")

	// ── 状态 ──
	case errors.Is(err, service.ErrEventClosed):
		response.Conflict(c, 20201, "活动已归档或已删除，不可变更排班")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 20202, "当前排班状态不允许该操作")
	case errors.Is(err, service.ErrAssignmentInactive):
		response.Conflict(c, 20203, "排班已取消或缺勤，不可修改工时")
	case errors.Is(err, service.ErrShiftNotEnded):
		response.Conflict(c, 20204, "班次尚未结束")
	case errors.Is(err, service.ErrNotApproved):
		response.Conflict(c, 20205, "排班尚未审批")
	case errors.Is(err, service.ErrAssignmentHasHours):
		response.Conflict(c, 20206, "已记录工时的排班不可删除，请改为移出活动")
	case errors.Is(err, service.ErrNotClockedIn):
		response.Conflict(c, 20207, "尚未上班打卡")
	case errors.Is(err, service.ErrScheduleOverlap):
		response.Conflict(c, 20208, "调整后员工的有效排班时间重叠")

	// ── 参数 ──
	case errors.Is(err, service.ErrScheduleMissing):
		response.BadRequest(c, 20301, "活动尚未设置时间表")
	case errors.Is(err, service.ErrNoSkillRequirements):
		response.BadRequest(c, 20302, "活动没有技能需求，无法生成班次")
	case errors.Is(err, service.ErrInvalidScheduleRange):
		response.BadRequest(c, 20303, "结束时间必须晚于开始时间")
	case errors.Is(err, service.ErrHoursRequired):
		response.BadRequest(c, 20304, "需提供工时或实际上下班时间")
	case errors.Is(err, service.ErrInvalidHours):
		response.BadRequest(c, 20305, "工时超出允许范围")
	case errors.Is(err, service.ErrInvalidClockTimes):
		response.BadRequest(c, 20306, "下班时间必须晚于上班时间")
	case errors.Is(err, service.ErrInvalidPayRate):
		response.BadRequest(c, 20307, "费率不能为负数")

	// ── 一致性 ──
	case errors.Is(err, pkgerrors.ErrConsistency):
		response.Error(c, http.StatusInternalServerError, 20401, "数据一致性维护失败，变更已回滚")
	default:
		response.InternalError(c)
	}
}
