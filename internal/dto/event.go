package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ── 活动模块 DTO ──

// UpdateEventScheduleRequest 修改活动时间请求（乐观锁）
type UpdateEventScheduleRequest struct {
	StartTimeUTC time.Time `json:"start_time_utc" binding:"required"`
	EndTimeUTC   time.Time `json:"end_time_utc"   binding:"required"`
	BreakMinutes *int      `json:"break_minutes"  binding:"omitempty,min=0,max=1440"`
	Version      int       `json:"version"        binding:"required,min=1"`
}

// UpdatePayRateRequest 修改技能需求费率请求
// Version 非空时校验所属活动的版本号
type UpdatePayRateRequest struct {
	PayRate *decimal.Decimal `json:"pay_rate" binding:"required"`
	Version *int             `json:"version"  binding:"omitempty,min=1"`
}

// ActivityLogListRequest 审计日志列表查询参数
type ActivityLogListRequest struct {
	PaginationRequest
}

// ── 响应 ──

// EventResponse 活动响应（含汇总）
type EventResponse struct {
	ID                   string                     `json:"id"`
	Title                string                     `json:"title"`
	Status               string                     `json:"status"`
	Schedule             *EventScheduleResponse     `json:"schedule,omitempty"`
	SkillRequirements    []SkillRequirementResponse `json:"skill_requirements,omitempty"`
	Shifts               []ShiftResponse            `json:"shifts,omitempty"`
	TotalWorkersNeeded   int                        `json:"total_workers_needed"`
	AssignedWorkersCount int                        `json:"assigned_workers_count"`
	TotalShiftsCount     int                        `json:"total_shifts_count"`
	AssignedShiftsCount  int                        `json:"assigned_shifts_count"`
	TotalHoursWorked     decimal.Decimal            `json:"total_hours_worked"`
	TotalPayAmount       decimal.Decimal            `json:"total_pay_amount"`
	ShiftsGenerated      bool                       `json:"shifts_generated"`
	PublishedAt          *string                    `json:"published_at,omitempty"`
	Version              int                        `json:"version"`
	CreatedAt            string                     `json:"created_at"`
	UpdatedAt            string                     `json:"updated_at"`
}

// EventScheduleResponse 活动时间表响应
type EventScheduleResponse struct {
	StartTimeUTC string `json:"start_time_utc"`
	EndTimeUTC   string `json:"end_time_utc"`
	BreakMinutes int    `json:"break_minutes"`
}

// SkillRequirementResponse 技能需求响应
type SkillRequirementResponse struct {
	ID                      string          `json:"id"`
	SkillName               string          `json:"skill_name"`
	NeededWorkers           int             `json:"needed_workers"`
	PayRate                 decimal.Decimal `json:"pay_rate"`
	RequiredCertificationID *string         `json:"required_certification_id,omitempty"`
}

// ShiftResponse 班次响应
type ShiftResponse struct {
	ID                      string              `json:"id"`
	EventID                 string              `json:"event_id"`
	SkillRequirementID      *string             `json:"skill_requirement_id,omitempty"`
	RoleNeeded              string              `json:"role_needed"`
	StartTimeUTC            string              `json:"start_time_utc"`
	EndTimeUTC              string              `json:"end_time_utc"`
	Capacity                int                 `json:"capacity"`
	PayRate                 decimal.NullDecimal `json:"pay_rate"`
	AutoGenerated           bool                `json:"auto_generated"`
	RequiredCertificationID *string             `json:"required_certification_id,omitempty"`
}

// ShiftGenerationResponse 班次生成 / 发布结果
// Created 为 false 表示班次已存在，本次调用未生成新班次
type ShiftGenerationResponse struct {
	EventID string          `json:"event_id"`
	Status  string          `json:"status"`
	Created bool            `json:"created"`
	Shifts  []ShiftResponse `json:"shifts"`
}

// CascadeResult 费率级联结果
type CascadeResult struct {
	RequirementID     string          `json:"requirement_id"`
	EventID           string          `json:"event_id"`
	Role              string          `json:"role"`
	OldRate           decimal.Decimal `json:"old_rate"`
	NewRate           decimal.Decimal `json:"new_rate"`
	UpdatedShiftCount int             `json:"updated_shift_count"`
}

// ActivityLogResponse 审计日志响应
type ActivityLogResponse struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	EventID    *string         `json:"event_id,omitempty"`
	Action     string          `json:"action"`
	ActorID    *string         `json:"actor_id,omitempty"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	CreatedAt  string          `json:"created_at"`
}
