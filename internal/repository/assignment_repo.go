package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"social-catering/backend/internal/model"
)

// AssignmentRepository 排班数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.Assignment) error
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	GetForUpdate(ctx context.Context, id string) (*model.Assignment, error)
	// CountActiveByShift 统计班次上的有效排班，excludeID 非空时排除该条
	CountActiveByShift(ctx context.Context, shiftID, excludeID string) (int64, error)
	// ListActiveByWorkerOverlapping 查询员工与 [start, end) 重叠的其他有效排班（含班次）
	ListActiveByWorkerOverlapping(ctx context.Context, workerID string, start, end time.Time, excludeID string) ([]model.Assignment, error)
	// ListActiveByEvent 查询活动下全部有效排班
	ListActiveByEvent(ctx context.Context, eventID string) ([]model.Assignment, error)
	// ListByEvent 查询活动下全部排班（含已取消、缺勤），预加载员工
	ListByEvent(ctx context.Context, eventID string) ([]model.Assignment, error)
	Update(ctx context.Context, a *model.Assignment) error
	Delete(ctx context.Context, id string) error
}

// ── Assignment Repository 实现 ──

type assignmentRepo struct {
	db *gorm.DB
}

func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.Assignment) error {
	return TranslateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error)
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var a model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Shift").Preload("Shift.SkillRequirement").
		Preload("Worker").
		Where("assignment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) GetForUpdate(ctx context.Context, id string) (*model.Assignment, error) {
	var a model.Assignment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("assignment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return &a, nil
}

func (r *assignmentRepo) CountActiveByShift(ctx context.Context, shiftID, excludeID string) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Where("shift_id = ? AND status NOT IN ?", shiftID, model.InactiveAssignmentStatuses)
	if excludeID != "" {
		q = q.Where("assignment_id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count, err
}

func (r *assignmentRepo) ListActiveByWorkerOverlapping(ctx context.Context, workerID string, start, end time.Time, excludeID string) ([]model.Assignment, error) {
	var list []model.Assignment
	q := r.db.WithContext(ctx).
		Preload("Shift").
		Joins("JOIN shifts ON shifts.shift_id = assignments.shift_id").
		Where("assignments.worker_id = ? AND assignments.status NOT IN ?", workerID, model.InactiveAssignmentStatuses).
		Where("shifts.start_time_utc < ? AND shifts.end_time_utc > ?", end, start)
	if excludeID != "" {
		q = q.Where("assignments.assignment_id <> ?", excludeID)
	}
	err := q.Order("shifts.start_time_utc ASC").Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ListActiveByEvent(ctx context.Context, eventID string) ([]model.Assignment, error) {
	var list []model.Assignment
	err := r.db.WithContext(ctx).
		Joins("JOIN shifts ON shifts.shift_id = assignments.shift_id").
		Where("shifts.event_id = ? AND assignments.status NOT IN ?", eventID, model.InactiveAssignmentStatuses).
		Order("assignments.created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Assignment, error) {
	var list []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Worker").
		Joins("JOIN shifts ON shifts.shift_id = assignments.shift_id").
		Where("shifts.event_id = ?", eventID).
		Order("assignments.created_at ASC").
		Find(&list).Error
	return list, err
}

// Update 写入排班的全部可变字段；调用方须已持有该行的行锁
func (r *assignmentRepo) Update(ctx context.Context, a *model.Assignment) error {
	result := r.db.WithContext(ctx).
		Model(a).
		Where("assignment_id = ?", a.AssignmentID).
		Updates(map[string]interface{}{
			"status":                a.Status,
			"clock_in_at":           a.ClockInAt,
			"clock_out_at":          a.ClockOutAt,
			"break_minutes":         a.BreakMinutes,
			"hours_worked":          a.HoursWorked,
			"overtime_hours":        a.OvertimeHours,
			"original_hours_worked": a.OriginalHoursWorked,
			"hourly_rate":           a.HourlyRate,
			"approved":              a.Approved,
			"approved_by":           a.ApprovedBy,
			"approved_at":           a.ApprovedAt,
			"approval_notes":        a.ApprovalNotes,
			"edited_by":             a.EditedBy,
			"edited_at":             a.EditedAt,
			"notes":                 a.Notes,
			"updated_by":            a.UpdatedBy,
		})
	if result.Error != nil {
		return TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *assignmentRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("assignment_id = ?", id).
		Delete(&model.Assignment{})
	if result.Error != nil {
		return TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
