package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 排班状态
const (
	AssignmentStatusAssigned  = "assigned"
	AssignmentStatusConfirmed = "confirmed"
	AssignmentStatusCompleted = "completed"
	AssignmentStatusCancelled = "cancelled"
	AssignmentStatusNoShow    = "no_show"
)

// InactiveAssignmentStatuses 不占用班次容量的终态
var InactiveAssignmentStatuses = []string{AssignmentStatusCancelled, AssignmentStatusNoShow}

// Assignment 排班表，对应 assignments（员工 ↔ 班次）
// 同一 (shift_id, worker_id) 至多一条有效记录，由部分唯一索引保证
type Assignment struct {
	AssignmentID        string              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	ShiftID             string              `gorm:"type:uuid;not null"                             json:"shift_id"`
	WorkerID            string              `gorm:"type:uuid;not null"                             json:"worker_id"`
	Status              string              `gorm:"type:varchar(20);not null;default:'assigned'"   json:"status"` // assigned | confirmed | completed | cancelled | no_show
	AssignedBy          *string             `gorm:"type:uuid"                                      json:"assigned_by,omitempty"`
	ClockInAt           *time.Time          `json:"clock_in_at,omitempty"`
	ClockOutAt          *time.Time          `json:"clock_out_at,omitempty"`
	BreakMinutes        int                 `gorm:"not null;default:0"                             json:"break_minutes"`
	HoursWorked         decimal.NullDecimal `gorm:"type:numeric(6,2)"                              json:"hours_worked"`
	OvertimeHours       decimal.Decimal     `gorm:"type:numeric(6,2);not null;default:0"           json:"overtime_hours"`
	OriginalHoursWorked decimal.NullDecimal `gorm:"type:numeric(6,2)"                              json:"original_hours_worked"`
	HourlyRate          decimal.NullDecimal `gorm:"type:numeric(10,2)"                             json:"hourly_rate"`
	Approved            bool                `gorm:"not null;default:false"                         json:"approved"`
	ApprovedBy          *string             `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	ApprovedAt          *time.Time          `json:"approved_at,omitempty"`
	ApprovalNotes       *string             `gorm:"type:varchar(500)"                              json:"approval_notes,omitempty"`
	EditedBy            *string             `gorm:"type:uuid"                                      json:"edited_by,omitempty"`
	EditedAt            *time.Time          `json:"edited_at,omitempty"`
	Notes               *string             `gorm:"type:varchar(500)"                              json:"notes,omitempty"`
	BaseModel

	// 关联
	Shift  *Shift  `gorm:"foreignKey:ShiftID;references:ShiftID"   json:"shift,omitempty"`
	Worker *Worker `gorm:"foreignKey:WorkerID;references:WorkerID" json:"worker,omitempty"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// IsActive 非取消、非缺勤的排班计入容量与汇总
func (a *Assignment) IsActive() bool {
	return IsActiveAssignmentStatus(a.Status)
}

// HasRecordedHours 是否已经记录过工时（打卡或手工录入）
func (a *Assignment) HasRecordedHours() bool {
	return a.HoursWorked.Valid || a.ClockOutAt != nil
}

// IsActiveAssignmentStatus 判断状态是否占用容量
func IsActiveAssignmentStatus(status string) bool {
	for _, s := range InactiveAssignmentStatuses {
		if s == status {
			return false
		}
	}
	return true
}
