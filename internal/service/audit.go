package service

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"social-catering/backend/internal/model"
	"social-catering/backend/internal/repository"
)

// AuditSink 审计日志写入接口
// 在变更所在事务内同步调用，写入失败会使整个变更回滚
type AuditSink interface {
	Record(ctx context.Context, actorID *string, entityType, entityID, action string, before, after any) error
}

// AuditSinkFactory 基于事务内的 Repository 创建审计写入器，eventID 为本次变更所属活动
type AuditSinkFactory func(txRepo *repository.Repository, eventID string) AuditSink

// ActivityLogSink 将审计条目写入 activity_logs
type ActivityLogSink struct {
	logs    repository.ActivityLogRepository
	eventID string
}

// NewActivityLogSink 创建 activity_logs 审计写入器
func NewActivityLogSink(logs repository.ActivityLogRepository, eventID string) *ActivityLogSink {
	return &ActivityLogSink{logs: logs, eventID: eventID}
}

// DefaultAuditSinkFactory 每个事务创建一个 ActivityLogSink
func DefaultAuditSinkFactory(txRepo *repository.Repository, eventID string) AuditSink {
	return NewActivityLogSink(txRepo.ActivityLog, eventID)
}

func (s *ActivityLogSink) Record(ctx context.Context, actorID *string, entityType, entityID, action string, before, after any) error {
	beforeJSON, err := toJSON(before)
	if err != nil {
		return fmt.Errorf("序列化审计快照失败: %w", err)
	}
	afterJSON, err := toJSON(after)
	if err != nil {
		return fmt.Errorf("序列化审计快照失败: %w", err)
	}

	entry := &model.ActivityLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		Before:     beforeJSON,
		After:      afterJSON,
	}
	if s.eventID != "" {
		eventID := s.eventID
		entry.EventID = &eventID
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return fmt.Errorf("写入审计日志失败: %w", err)
	}
	return nil
}

func toJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
