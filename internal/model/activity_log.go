package model

import (
	"time"

	"gorm.io/datatypes"
)

// 审计实体类型
const (
	EntityAssignment       = "Assignment"
	EntityEvent            = "Event"
	EntitySkillRequirement = "EventSkillRequirement"
)

// 审计动作
const (
	ActionAssign         = "assign"
	ActionConfirm        = "confirm"
	ActionClockIn        = "clock_in"
	ActionClockOut       = "clock_out"
	ActionEditHours      = "edit_hours"
	ActionApprove        = "approve"
	ActionUnapprove      = "unapprove"
	ActionNoShow         = "mark_no_show"
	ActionRemove         = "remove_from_job"
	ActionDelete         = "delete"
	ActionPublish        = "publish"
	ActionGenerateShifts = "generate_shifts"
	ActionUpdateSchedule = "update_schedule"
	ActionRecalculate    = "recalculate"
	ActionPayRateCascade = "pay_rate_cascade"
)

// ActivityLog 审计日志，对应 activity_logs（只追加）
type ActivityLog struct {
	ActivityLogID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"activity_log_id"`
	EntityType    string         `gorm:"type:varchar(50);not null"                      json:"entity_type"`
	EntityID      string         `gorm:"type:uuid;not null"                             json:"entity_id"`
	EventID       *string        `gorm:"type:uuid"                                      json:"event_id,omitempty"`
	Action        string         `gorm:"type:varchar(50);not null"                      json:"action"`
	ActorID       *string        `gorm:"type:uuid"                                      json:"actor_id,omitempty"`
	Before        datatypes.JSON `gorm:"type:jsonb"                                     json:"before,omitempty"`
	After         datatypes.JSON `gorm:"type:jsonb"                                     json:"after,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ActivityLog) TableName() string { return "activity_logs" }
