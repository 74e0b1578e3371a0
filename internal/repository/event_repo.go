package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"social-catering/backend/internal/model"
	pkgerrors "social-catering/backend/pkg/errors"
)

// EventAggregates 活动汇总字段，只由重算服务整体写入
type EventAggregates struct {
	Status               string
	TotalWorkersNeeded   int
	AssignedWorkersCount int
	TotalShiftsCount     int
	AssignedShiftsCount  int
	TotalHoursWorked     decimal.Decimal
	TotalPayAmount       decimal.Decimal
}

// EventRepository 活动数据访问接口
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	// GetForUpdate 以行锁读取活动，同一活动的所有变更在此串行化
	GetForUpdate(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, event *model.Event) error
	// UpdateAggregates 写入汇总字段，不递增 version、不触发回调
	UpdateAggregates(ctx context.Context, eventID string, agg EventAggregates) error
}

// EventScheduleRepository 活动时间表数据访问接口
type EventScheduleRepository interface {
	Create(ctx context.Context, schedule *model.EventSchedule) error
	GetByEvent(ctx context.Context, eventID string) (*model.EventSchedule, error)
	Update(ctx context.Context, schedule *model.EventSchedule) error
}

// SkillRequirementRepository 技能需求数据访问接口
type SkillRequirementRepository interface {
	Create(ctx context.Context, req *model.EventSkillRequirement) error
	GetByID(ctx context.Context, id string) (*model.EventSkillRequirement, error)
	GetForUpdate(ctx context.Context, id string) (*model.EventSkillRequirement, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.EventSkillRequirement, error)
	UpdatePayRate(ctx context.Context, id string, rate decimal.Decimal, updatedBy *string) error
}

// ── Event Repository 实现 ──

type eventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event) error {
	return TranslateError(r.db.WithContext(ctx).Create(event).Error)
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Preload("Schedule").
		Preload("SkillRequirements", func(db *gorm.DB) *gorm.DB {
			return db.Order("skill_name ASC")
		}).
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return &event, nil
}

func (r *eventRepo) Update(ctx context.Context, event *model.Event) error {
	oldVersion := event.Version
	result := r.db.WithContext(ctx).
		Model(event).
		Where("event_id = ? AND version = ?", event.EventID, oldVersion).
		Updates(map[string]interface{}{
			"title":              event.Title,
			"status":             event.Status,
			"shifts_generated":   event.ShiftsGenerated,
			"total_shifts_count": event.TotalShiftsCount,
			"published_at":       event.PublishedAt,
			"updated_by":         event.UpdatedBy,
			"version":            oldVersion + 1,
		})
	if result.Error != nil {
		return TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	event.Version = oldVersion + 1
	return nil
}

func (r *eventRepo) UpdateAggregates(ctx context.Context, eventID string, agg EventAggregates) error {
	result := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_id = ?", eventID).
		UpdateColumns(map[string]interface{}{
			"status":                 agg.Status,
			"total_workers_needed":   agg.TotalWorkersNeeded,
			"assigned_workers_count": agg.AssignedWorkersCount,
			"total_shifts_count":     agg.TotalShiftsCount,
			"assigned_shifts_count":  agg.AssignedShiftsCount,
			"total_hours_worked":     agg.TotalHoursWorked,
			"total_pay_amount":       agg.TotalPayAmount,
			"updated_at":             time.Now().UTC(),
		})
	if result.Error != nil {
		return TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ── EventSchedule Repository 实现 ──

type eventScheduleRepo struct {
	db *gorm.DB
}

func NewEventScheduleRepo(db *gorm.DB) EventScheduleRepository {
	return &eventScheduleRepo{db: db}
}

func (r *eventScheduleRepo) Create(ctx context.Context, schedule *model.EventSchedule) error {
	return TranslateError(r.db.WithContext(ctx).Create(schedule).Error)
}

func (r *eventScheduleRepo) GetByEvent(ctx context.Context, eventID string) (*model.EventSchedule, error) {
	var schedule model.EventSchedule
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *eventScheduleRepo) Update(ctx context.Context, schedule *model.EventSchedule) error {
	return TranslateError(r.db.WithContext(ctx).
		Model(schedule).
		Where("event_schedule_id = ?", schedule.EventScheduleID).
		Updates(map[string]interface{}{
			"start_time_utc": schedule.StartTimeUTC,
			"end_time_utc":   schedule.EndTimeUTC,
			"break_minutes":  schedule.BreakMinutes,
			"updated_by":     schedule.UpdatedBy,
		}).Error)
}

// ── SkillRequirement Repository 实现 ──

type skillRequirementRepo struct {
	db *gorm.DB
}

func NewSkillRequirementRepo(db *gorm.DB) SkillRequirementRepository {
	return &skillRequirementRepo{db: db}
}

func (r *skillRequirementRepo) Create(ctx context.Context, req *model.EventSkillRequirement) error {
	return TranslateError(r.db.WithContext(ctx).Create(req).Error)
}

func (r *skillRequirementRepo) GetByID(ctx context.Context, id string) (*model.EventSkillRequirement, error) {
	var req model.EventSkillRequirement
	err := r.db.WithContext(ctx).
		Where("event_skill_requirement_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *skillRequirementRepo) GetForUpdate(ctx context.Context, id string) (*model.EventSkillRequirement, error) {
	var req model.EventSkillRequirement
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("event_skill_requirement_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return &req, nil
}

func (r *skillRequirementRepo) ListByEvent(ctx context.Context, eventID string) ([]model.EventSkillRequirement, error) {
	var reqs []model.EventSkillRequirement
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("skill_name ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *skillRequirementRepo) UpdatePayRate(ctx context.Context, id string, rate decimal.Decimal, updatedBy *string) error {
	result := r.db.WithContext(ctx).
		Model(&model.EventSkillRequirement{}).
		Where("event_skill_requirement_id = ?", id).
		Updates(map[string]interface{}{
			"pay_rate":   rate,
			"updated_by": updatedBy,
		})
	if result.Error != nil {
		return TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
