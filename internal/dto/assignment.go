package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── 排班模块 DTO ──

// 校验失败原因
const (
	ReasonWorkerInactive       = "worker_inactive"
	ReasonCapacityExceeded     = "capacity_exceeded"
	ReasonAlreadyAssigned      = "already_assigned"
	ReasonTimeConflict         = "time_conflict"
	ReasonMissingSkill         = "missing_skill"
	ReasonMissingCertification = "missing_certification"
	ReasonExpiredCertification = "expired_certification"
)

// AssignWorkerRequest 派工请求
type AssignWorkerRequest struct {
	WorkerID string  `json:"worker_id" binding:"required,uuid"`
	Notes    *string `json:"notes"     binding:"omitempty,max=500"`
}

// ValidateCandidateRequest 校验候选人请求（只读）
type ValidateCandidateRequest struct {
	WorkerID     string  `json:"worker_id"     binding:"required,uuid"`
	AssignmentID *string `json:"assignment_id" binding:"omitempty,uuid"` // 调整已有排班时排除自身
}

// ClockInRequest 上班打卡；At 为空时取服务器时间
type ClockInRequest struct {
	At *time.Time `json:"at"`
}

// ClockOutRequest 下班打卡
type ClockOutRequest struct {
	At           *time.Time `json:"at"`
	BreakMinutes *int       `json:"break_minutes" binding:"omitempty,min=0,max=1440"`
}

// EditHoursRequest 修改工时请求
// HoursWorked 优先；未提供时由实际上下班时间推算
type EditHoursRequest struct {
	HoursWorked  *decimal.Decimal `json:"hours_worked"`
	ClockInAt    *time.Time       `json:"clock_in_at"`
	ClockOutAt   *time.Time       `json:"clock_out_at"`
	BreakMinutes *int             `json:"break_minutes" binding:"omitempty,min=0,max=1440"`
	Reason       *string          `json:"reason"        binding:"omitempty,max=500"`
}

// ApproveRequest 审批请求
type ApproveRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=500"`
}

// UnapproveRequest 撤销审批请求
type UnapproveRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=500"`
}

// StatusChangeRequest 缺勤 / 移出活动请求
type StatusChangeRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=500"`
}

// ── 响应 ──

// ValidationFailure 单条校验失败原因
type ValidationFailure struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ValidationResult 候选人校验结果
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Failures []ValidationFailure `json:"failures"`
}

// AssignResult 派工结果：成功时返回排班，失败时返回全部原因
type AssignResult struct {
	Assigned   bool                `json:"assigned"`
	Assignment *AssignmentResponse `json:"assignment,omitempty"`
	Failures   []ValidationFailure `json:"failures,omitempty"`
}

// AssignmentResponse 排班响应
type AssignmentResponse struct {
	ID                  string              `json:"id"`
	ShiftID             string              `json:"shift_id"`
	WorkerID            string              `json:"worker_id"`
	WorkerName          string              `json:"worker_name,omitempty"`
	Status              string              `json:"status"`
	ClockInAt           *string             `json:"clock_in_at,omitempty"`
	ClockOutAt          *string             `json:"clock_out_at,omitempty"`
	BreakMinutes        int                 `json:"break_minutes"`
	HoursWorked         decimal.NullDecimal `json:"hours_worked"`
	OvertimeHours       decimal.Decimal     `json:"overtime_hours"`
	OriginalHoursWorked decimal.NullDecimal `json:"original_hours_worked"`
	HourlyRate          decimal.NullDecimal `json:"hourly_rate"`
	EffectiveHours      decimal.Decimal     `json:"effective_hours"`
	EffectivePay        decimal.Decimal     `json:"effective_pay"`
	Approved            bool                `json:"approved"`
	ApprovedBy          *string             `json:"approved_by,omitempty"`
	ApprovedAt          *string             `json:"approved_at,omitempty"`
	ApprovalNotes       *string             `json:"approval_notes,omitempty"`
	EditedBy            *string             `json:"edited_by,omitempty"`
	EditedAt            *string             `json:"edited_at,omitempty"`
	Notes               *string             `json:"notes,omitempty"`
	CreatedAt           string              `json:"created_at"`
	UpdatedAt           string              `json:"updated_at"`
}
