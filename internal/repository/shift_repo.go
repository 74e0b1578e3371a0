package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"social-catering/backend/internal/model"
)

// PayRateCascade 费率级联的作用范围
// 同一活动内：关联到该技能需求的班次，或未关联但 role_needed 与技能名一致的班次
type PayRateCascade struct {
	EventID       string
	RequirementID string
	SkillName     string
	OldRate       decimal.Decimal
	NewRate       decimal.Decimal
	UpdatedBy     *string
}

// ShiftRepository 班次数据访问接口
type ShiftRepository interface {
	BatchCreate(ctx context.Context, shifts []model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	// GetForUpdate 以行锁读取班次（不含关联），与容量触发器使用同一把锁
	GetForUpdate(ctx context.Context, id string) (*model.Shift, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Shift, error)
	CountByEvent(ctx context.Context, eventID string) (int64, error)
	// UpdateTimesByEvent 将活动下全部班次的时间同步为新的活动时间
	UpdateTimesByEvent(ctx context.Context, eventID string, start, end time.Time, updatedBy *string) (int64, error)
	// CascadePayRate 批量更新跟随旧费率的班次，返回更新行数
	CascadePayRate(ctx context.Context, c PayRateCascade) (int64, error)
}

// ── Shift Repository 实现 ──

type shiftRepo struct {
	db *gorm.DB
}

func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) BatchCreate(ctx context.Context, shifts []model.Shift) error {
	if len(shifts) == 0 {
		return nil
	}
	return TranslateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(&shifts).Error)
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Preload("SkillRequirement").
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) GetForUpdate(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return &shift, nil
}

func (r *shiftRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("SkillRequirement").
		Where("event_id = ?", eventID).
		Order("start_time_utc ASC, role_needed ASC, created_at ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) CountByEvent(ctx context.Context, eventID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

func (r *shiftRepo) UpdateTimesByEvent(ctx context.Context, eventID string, start, end time.Time, updatedBy *string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"start_time_utc": start,
			"end_time_utc":   end,
			"updated_by":     updatedBy,
		})
	return result.RowsAffected, TranslateError(result.Error)
}

// CascadePayRate 资格条件：(pay_rate IS NULL AND auto_generated) OR pay_rate = 旧费率。
// 手工改成第三个费率的班次不受影响。
func (r *shiftRepo) CascadePayRate(ctx context.Context, c PayRateCascade) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("event_id = ?", c.EventID).
		Where("(event_skill_requirement_id = ? OR (event_skill_requirement_id IS NULL AND role_needed = ?))",
			c.RequirementID, c.SkillName).
		Where("((pay_rate IS NULL AND auto_generated) OR pay_rate = ?)", c.OldRate).
		Updates(map[string]interface{}{
			"pay_rate":   c.NewRate,
			"updated_by": c.UpdatedBy,
		})
	return result.RowsAffected, TranslateError(result.Error)
}
