package repository

import (
	"context"

	"gorm.io/gorm"

	"social-catering/backend/internal/model"
)

// ActivityLogRepository 审计日志数据访问接口（只追加）
type ActivityLogRepository interface {
	Create(ctx context.Context, log *model.ActivityLog) error
	ListByEvent(ctx context.Context, eventID string, offset, limit int) ([]model.ActivityLog, int64, error)
}

// ── ActivityLog Repository 实现 ──

type activityLogRepo struct {
	db *gorm.DB
}

func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, log *model.ActivityLog) error {
	return TranslateError(r.db.WithContext(ctx).Create(log).Error)
}

func (r *activityLogRepo) ListByEvent(ctx context.Context, eventID string, offset, limit int) ([]model.ActivityLog, int64, error) {
	var logs []model.ActivityLog
	var total int64

	q := r.db.WithContext(ctx).Model(&model.ActivityLog{}).Where("event_id = ?", eventID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&logs).Error
	return logs, total, err
}
