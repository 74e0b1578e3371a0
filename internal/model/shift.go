package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shift 班次表，对应 shifts
// 有效排班数 ≤ capacity，由校验器与数据库触发器共同保证
type Shift struct {
	ShiftID                 string              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	EventID                 string              `gorm:"type:uuid;not null"                             json:"event_id"`
	EventSkillRequirementID *string             `gorm:"type:uuid"                                      json:"event_skill_requirement_id,omitempty"`
	RoleNeeded              string              `gorm:"type:varchar(100);not null"                     json:"role_needed"`
	StartTimeUTC            time.Time           `gorm:"column:start_time_utc;not null"                 json:"start_time_utc"`
	EndTimeUTC              time.Time           `gorm:"column:end_time_utc;not null"                   json:"end_time_utc"`
	Capacity                int                 `gorm:"not null;default:1"                             json:"capacity"`
	PayRate                 decimal.NullDecimal `gorm:"type:numeric(10,2)"                             json:"pay_rate"`
	AutoGenerated           bool                `gorm:"not null;default:false"                         json:"auto_generated"`
	RequiredCertificationID *string             `gorm:"type:varchar(64)"                               json:"required_certification_id,omitempty"`
	BaseModel

	// 关联
	SkillRequirement *EventSkillRequirement `gorm:"foreignKey:EventSkillRequirementID;references:EventSkillRequirementID" json:"skill_requirement,omitempty"`
	Event            *Event                 `gorm:"foreignKey:EventID;references:EventID"                                 json:"event,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// RequiredSkill 班次要求的技能：优先取关联技能需求的名称，否则取 role_needed
func (s *Shift) RequiredSkill() string {
	if s.SkillRequirement != nil && s.SkillRequirement.SkillName != "" {
		return s.SkillRequirement.SkillName
	}
	return s.RoleNeeded
}

// Overlaps 半开区间 [start, end) 重叠判断
func (s *Shift) Overlaps(other *Shift) bool {
	return other.StartTimeUTC.Before(s.EndTimeUTC) && other.EndTimeUTC.After(s.StartTimeUTC)
}

// HasEnded 班次结束时间是否已过
func (s *Shift) HasEnded(now time.Time) bool {
	return !now.Before(s.EndTimeUTC)
}
