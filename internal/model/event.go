package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 活动状态
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusAssigned  = "assigned"
	EventStatusCompleted = "completed"
	EventStatusArchived  = "archived"
	EventStatusDeleted   = "deleted"
)

// Event 活动表，对应 events（排班聚合根）
// 汇总字段只由重算服务写入，不接受直接编辑
type Event struct {
	EventID              string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	Title                string          `gorm:"type:varchar(200);not null"                     json:"title"`
	Status               string          `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"` // draft | published | assigned | completed | archived | deleted
	TotalWorkersNeeded   int             `gorm:"not null;default:0"                             json:"total_workers_needed"`
	AssignedWorkersCount int             `gorm:"not null;default:0"                             json:"assigned_workers_count"`
	TotalShiftsCount     int             `gorm:"not null;default:0"                             json:"total_shifts_count"`
	AssignedShiftsCount  int             `gorm:"not null;default:0"                             json:"assigned_shifts_count"`
	TotalHoursWorked     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"total_hours_worked"`
	TotalPayAmount       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"total_pay_amount"`
	ShiftsGenerated      bool            `gorm:"not null;default:false"                         json:"shifts_generated"`
	PublishedAt          *time.Time      `json:"published_at,omitempty"`
	VersionedModel

	// 关联
	Schedule          *EventSchedule          `gorm:"foreignKey:EventID;references:EventID" json:"schedule,omitempty"`
	SkillRequirements []EventSkillRequirement `gorm:"foreignKey:EventID;references:EventID" json:"skill_requirements,omitempty"`
	Shifts            []Shift                 `gorm:"foreignKey:EventID;references:EventID" json:"shifts,omitempty"`
}

// TableName 指定表名
func (Event) TableName() string { return "events" }

// IsClosed 已归档或已删除的活动不再接受排班变更
func (e *Event) IsClosed() bool {
	return e.Status == EventStatusArchived || e.Status == EventStatusDeleted
}

// EventSchedule 活动时间表，对应 event_schedules（与 events 1:1）
type EventSchedule struct {
	EventScheduleID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_schedule_id"`
	EventID         string    `gorm:"type:uuid;not null;uniqueIndex"                 json:"event_id"`
	StartTimeUTC    time.Time `gorm:"column:start_time_utc;not null"                 json:"start_time_utc"`
	EndTimeUTC      time.Time `gorm:"column:end_time_utc;not null"                   json:"end_time_utc"`
	BreakMinutes    int       `gorm:"not null;default:0"                             json:"break_minutes"`
	BaseModel
}

// TableName 指定表名
func (EventSchedule) TableName() string { return "event_schedules" }

// EventSkillRequirement 活动技能需求，对应 event_skill_requirements
// 同一活动内 skill_name 唯一；pay_rate 变更会级联到班次
type EventSkillRequirement struct {
	EventSkillRequirementID string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_skill_requirement_id"`
	EventID                 string          `gorm:"type:uuid;not null"                             json:"event_id"`
	SkillName               string          `gorm:"type:varchar(100);not null"                     json:"skill_name"`
	NeededWorkers           int             `gorm:"not null"                                       json:"needed_workers"`
	PayRate                 decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"          json:"pay_rate"`
	RequiredCertificationID *string         `gorm:"type:varchar(64)"                               json:"required_certification_id,omitempty"`
	BaseModel
}

// TableName 指定表名
func (EventSkillRequirement) TableName() string { return "event_skill_requirements" }
