package handler

import (
	"github.com/gin-gonic/gin"

	"social-catering/backend/internal/dto"
	"social-catering/backend/internal/service"
	"social-catering/backend/pkg/response"
)

// EventHandler 活动模块 HTTP 处理器
type EventHandler struct {
	eventSvc service.EventService
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(eventSvc service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// GetEvent 获取活动详情（含班次与汇总）
// GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	event, err := h.eventSvc.GetEvent(c.Request.Context(), id)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, event)
}

// PublishEvent 发布活动（首次发布时自动生成班次）
// POST /api/v1/events/:id/publish
func (h *EventHandler) PublishEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	result, err := h.eventSvc.PublishEvent(c.Request.Context(), id, actorID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// GenerateShifts 按技能需求生成班次（已存在时直接返回）
// POST /api/v1/events/:id/shifts/generate
func (h *EventHandler) GenerateShifts(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	result, err := h.eventSvc.GenerateShifts(c.Request.Context(), id, actorID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	if result.Created {
		response.Created(c, result)
		return
	}
	response.OK(c, result)
}

// UpdateSchedule 修改活动时间（乐观锁）
// PUT /api/v1/events/:id/schedule
func (h *EventHandler) UpdateSchedule(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	var req dto.UpdateEventScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.UpdateEventSchedule(c.Request.Context(), id, &req, actorID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, event)
}

// RecalculateEvent 手动重算活动汇总
// POST /api/v1/events/:id/recalculate
func (h *EventHandler) RecalculateEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.RecalculateEvent(c.Request.Context(), id, actorID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, event)
}

// ListActivityLogs 分页查询活动审计日志
// GET /api/v1/events/:id/activity-logs
func (h *EventHandler) ListActivityLogs(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	var req dto.ActivityLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	logs, total, err := h.eventSvc.ListActivityLogs(c.Request.Context(), id, &req)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OKPage(c, logs, total, req.GetPage(), req.GetPageSize())
}

// UpdatePayRate 修改技能需求费率并级联到班次
// PUT /api/v1/skill-requirements/:id/pay-rate
func (h *EventHandler) UpdatePayRate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "技能需求ID不能为空")
		return
	}

	var req dto.UpdatePayRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	result, err := h.eventSvc.UpdateSkillRequirementPayRate(c.Request.Context(), id, &req, actorID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}
