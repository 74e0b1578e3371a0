package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"social-catering/backend/internal/dto"
	"social-catering/backend/internal/service"
	"social-catering/backend/pkg/response"
)

// AssignmentHandler 排班模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// AssignWorker 派工
// POST /api/v1/shifts/:id/assignments
// 校验未通过时返回 422，data 中携带全部失败原因
func (h *AssignmentHandler) AssignWorker(c *gin.Context) {
	shiftID := c.Param("id")
	if shiftID == "" {
		response.BadRequest(c, 10001, "班次ID不能为空")
		return
	}

	var req dto.AssignWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	result, err := h.assignmentSvc.TryAssignWorker(c.Request.Context(), shiftID, &req, actorID)
	if err != nil {
		handleEngineError(c, err)
		return
	}
	if !result.Assigned {
		response.UnprocessableEntity(c, 20010, "候选人校验未通过", result)
		return
	}

	response.Created(c, result)
}

// ValidateCandidate 校验候选人（只读，不写入）
// POST /api/v1/shifts/:id/assignments/validate
func (h *AssignmentHandler) ValidateCandidate(c *gin.Context) {
	shiftID := c.Param("id")
	if shiftID == "" {
		response.BadRequest(c, 10001, "班次ID不能为空")
		return
	}

	var req dto.ValidateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.assignmentSvc.ValidateCandidate(c.Request.Context(), shiftID, &req)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// ConfirmAssignment 员工确认排班
// POST /api/v1/assignments/:id/confirm
func (h *AssignmentHandler) ConfirmAssignment(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班ID不能为空")
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentSvc.ConfirmAssignment(c.Request.Context(), id, actorID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, assignment)
}

// ClockIn 上班打卡
// POST /api/v1/assignments/:id/clock-in
func (h *AssignmentHandler) ClockIn(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班ID不能为空")
		return
	}

	var req dto.ClockInRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentSvc.ClockIn(c.Request.Context(), id, &req, actorID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, assignment)
}

// ClockOut 下班打卡
// POST /api/v1/assignments/:id/clock-out
func (h *AssignmentHandler) ClockOut(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班ID不能为空")
		return
	}

	var req dto.ClockOutRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentSvc.ClockOut(c.Request.Context(), id, &req, actorID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, assignment)
}

// EditHours 修改工时（已审批的排班会先撤销审批）
// PUT /api/v1/assignments/:id/hours
func (h *AssignmentHandler) EditHours(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班ID不能为空")
		return
	}

	var req dto.EditHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentSvc.EditAssignmentHours(c.Request.Context(), id, &req, actorID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, assignment)
}

// Approve 审批工时
// POST /api/v1/assignments/:id/approve
func (h *AssignmentHandler) Approve(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班ID不能为空")
		return
	}

	var req dto.ApproveRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentSvc.ApproveAssignment(c.Request.Context(), id, &req, actorID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, assignment)
}

// Unapprove 撤销审批
// POST /api/v1/assignments/:id/unapprove
func (h *AssignmentHandler) Unapprove(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班ID不能为空")
		return
	}

	var req dto.UnapproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentSvc.UnapproveAssignment(c.Request.Context(), id, &req, actorID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, assignment)
}

// MarkNoShow 标记缺勤
// POST /api/v1/assignments/:id/no-show
func (h *AssignmentHandler) MarkNoShow(c *gin.Context) {
	h.changeStatus(c, h.assignmentSvc.MarkNoShow)
}

// RemoveFromJob 移出活动
// POST /api/v1/assignments/:id/remove
func (h *AssignmentHandler) RemoveFromJob(c *gin.Context) {
	h.changeStatus(c, h.assignmentSvc.RemoveFromJob)
}

type statusChangeFunc func(ctx context.Context, id string, req *dto.StatusChangeRequest, actorID string) (*dto.AssignmentResponse, error)

func (h *AssignmentHandler) changeStatus(c *gin.Context, fn statusChangeFunc) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班ID不能为空")
		return
	}

	var req dto.StatusChangeRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	assignment, err := fn(c.Request.Context(), id, &req, actorID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, assignment)
}

// DeleteAssignment 删除排班（仅限未记录工时）
// DELETE /api/v1/assignments/:id
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班ID不能为空")
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	if err := h.assignmentSvc.DeleteAssignment(c.Request.Context(), id, actorID); err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, nil)
}
