package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"social-catering/backend/config"
	"social-catering/backend/internal/dto"
	"social-catering/backend/internal/model"
	"social-catering/backend/internal/repository"
	pkgerrors "social-catering/backend/pkg/errors"
	"social-catering/backend/pkg/metrics"
)

// EventService 活动业务接口：发布、班次生成、时间调整、汇总与费率级联
type EventService interface {
	GetEvent(ctx context.Context, id string) (*dto.EventResponse, error)
	PublishEvent(ctx context.Context, id string, actorID string) (*dto.ShiftGenerationResponse, error)
	GenerateShifts(ctx context.Context, id string, actorID string) (*dto.ShiftGenerationResponse, error)
	UpdateEventSchedule(ctx context.Context, id string, req *dto.UpdateEventScheduleRequest, actorID string) (*dto.EventResponse, error)
	RecalculateEvent(ctx context.Context, id string, actorID string) (*dto.EventResponse, error)
	ListActivityLogs(ctx context.Context, id string, req *dto.ActivityLogListRequest) ([]dto.ActivityLogResponse, int64, error)
	UpdateSkillRequirementPayRate(ctx context.Context, requirementID string, req *dto.UpdatePayRateRequest, actorID string) (*dto.CascadeResult, error)
}

type eventService struct {
	*engineDeps
}

// NewEventService 创建 EventService 实例
func NewEventService(engine config.EngineConfig, repo *repository.Repository, collector metrics.Collector, logger *zap.Logger) EventService {
	return newEventService(newEngineDeps(engine, repo, collector, logger))
}

func newEventService(deps *engineDeps) *eventService {
	return &eventService{engineDeps: deps}
}

// lockEvent 以行锁读取活动；requireOpen 为 true 时拒绝已归档或已删除的活动
func (s *eventService) lockEvent(ctx context.Context, txRepo *repository.Repository, id string, requireOpen bool) (*model.Event, error) {
	event, err := txRepo.Event.GetForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	if requireOpen && event.IsClosed() {
		return nil, ErrEventClosed
	}
	return event, nil
}

func (s *eventService) record(ctx context.Context, txRepo *repository.Repository, event *model.Event, actorID, action string, before, after any) error {
	return s.audit(txRepo, event.EventID).Record(ctx, actorPtr(actorID), model.EntityEvent, event.EventID, action, before, after)
}

// ────────────────────── GetEvent ──────────────────────

func (s *eventService) GetEvent(ctx context.Context, id string) (*dto.EventResponse, error) {
	resp, err := loadEventResponse(ctx, s.repo, id)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrNotFound) {
			s.logger.Error("查询活动失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return resp, nil
}

// ────────────────────── PublishEvent / GenerateShifts ──────────────────────

// PublishEvent 发布活动并按需生成班次；重复调用返回已有班次，不产生任何写入
func (s *eventService) PublishEvent(ctx context.Context, id string, actorID string) (*dto.ShiftGenerationResponse, error) {
	var (
		resp    *dto.ShiftGenerationResponse
		created int
	)

	err := s.runInTx(ctx, "publish", func(ctx context.Context, txRepo *repository.Repository) error {
		event, err := s.lockEvent(ctx, txRepo, id, true)
		if err != nil {
			return err
		}
		before := eventSnapshot(event)

		shifts, isNew, err := s.generateShifts(ctx, txRepo, event, actorID)
		if err != nil {
			return err
		}
		resp = &dto.ShiftGenerationResponse{EventID: event.EventID, Created: isNew, Shifts: toShiftResponses(shifts)}

		wasDraft := event.Status == model.EventStatusDraft
		if !isNew && !wasDraft {
			resp.Status = event.Status
			return nil
		}

		if wasDraft {
			now := s.now()
			event.Status = model.EventStatusPublished
			event.PublishedAt = &now
		}
		event.UpdatedBy = actorPtr(actorID)
		if err := txRepo.Event.Update(ctx, event); err != nil {
			return err
		}
		if _, err := s.recalc.Recalculate(ctx, txRepo, event); err != nil {
			return err
		}
		after := eventSnapshot(event)
		after["shifts_created"] = len(shifts)
		if !isNew {
			after["shifts_created"] = 0
		}
		if err := s.record(ctx, txRepo, event, actorID, model.ActionPublish, before, after); err != nil {
			return err
		}

		resp.Status = event.Status
		if isNew {
			created = len(shifts)
		}
		return nil
	})
	if err != nil {
		s.logFailure("发布活动失败", id, err)
		return nil, err
	}

	if created > 0 {
		s.metrics.RecordShiftsGenerated(created)
		s.logger.Info("活动已发布并生成班次", zap.String("event_id", id), zap.Int("shifts", created))
	}
	return resp, nil
}

// GenerateShifts 显式生成班次，不改变活动状态；已有班次时为空操作
func (s *eventService) GenerateShifts(ctx context.Context, id string, actorID string) (*dto.ShiftGenerationResponse, error) {
	var (
		resp    *dto.ShiftGenerationResponse
		created int
	)

	err := s.runInTx(ctx, "generate_shifts", func(ctx context.Context, txRepo *repository.Repository) error {
		event, err := s.lockEvent(ctx, txRepo, id, true)
		if err != nil {
			return err
		}
		before := eventSnapshot(event)

		shifts, isNew, err := s.generateShifts(ctx, txRepo, event, actorID)
		if err != nil {
			return err
		}
		resp = &dto.ShiftGenerationResponse{EventID: event.EventID, Status: event.Status, Created: isNew, Shifts: toShiftResponses(shifts)}
		if !isNew {
			return nil
		}

		event.UpdatedBy = actorPtr(actorID)
		if err := txRepo.Event.Update(ctx, event); err != nil {
			return err
		}
		if _, err := s.recalc.Recalculate(ctx, txRepo, event); err != nil {
			return err
		}
		after := eventSnapshot(event)
		after["shifts_created"] = len(shifts)
		if err := s.record(ctx, txRepo, event, actorID, model.ActionGenerateShifts, before, after); err != nil {
			return err
		}

		resp.Status = event.Status
		created = len(shifts)
		return nil
	})
	if err != nil {
		s.logFailure("生成班次失败", id, err)
		return nil, err
	}

	if created > 0 {
		s.metrics.RecordShiftsGenerated(created)
	}
	return resp, nil
}

// ────────────────────── UpdateEventSchedule ──────────────────────

// UpdateEventSchedule 修改活动时间（乐观锁），并同步全部班次的时间范围
func (s *eventService) UpdateEventSchedule(ctx context.Context, id string, req *dto.UpdateEventScheduleRequest, actorID string) (*dto.EventResponse, error) {
	start, end := req.StartTimeUTC.UTC(), req.EndTimeUTC.UTC()
	if !end.After(start) {
		return nil, ErrInvalidScheduleRange
	}

	var resp *dto.EventResponse
	err := s.runInTx(ctx, "update_schedule", func(ctx context.Context, txRepo *repository.Repository) error {
		event, err := s.lockEvent(ctx, txRepo, id, true)
		if err != nil {
			return err
		}
		if event.Version != req.Version {
			return pkgerrors.ErrOptimisticLock
		}

		before := map[string]any{}
		schedule, err := txRepo.EventSchedule.GetByEvent(ctx, id)
		switch {
		case err == nil:
			before = scheduleSnapshot(schedule)
			schedule.StartTimeUTC, schedule.EndTimeUTC = start, end
			if req.BreakMinutes != nil {
				schedule.BreakMinutes = *req.BreakMinutes
			}
			schedule.UpdatedBy = actorPtr(actorID)
			if err := txRepo.EventSchedule.Update(ctx, schedule); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			schedule = &model.EventSchedule{EventID: id, StartTimeUTC: start, EndTimeUTC: end}
			if req.BreakMinutes != nil {
				schedule.BreakMinutes = *req.BreakMinutes
			}
			schedule.CreatedBy = actorPtr(actorID)
			schedule.UpdatedBy = actorPtr(actorID)
			if err := txRepo.EventSchedule.Create(ctx, schedule); err != nil {
				return err
			}
		default:
			return err
		}

		updated, err := txRepo.Shift.UpdateTimesByEvent(ctx, id, start, end, actorPtr(actorID))
		if err != nil {
			return err
		}
		if err := checkWorkerOverlaps(ctx, txRepo, id, start, end); err != nil {
			return err
		}

		event.UpdatedBy = actorPtr(actorID)
		if err := txRepo.Event.Update(ctx, event); err != nil {
			return err
		}
		if _, err := s.recalc.Recalculate(ctx, txRepo, event); err != nil {
			return err
		}
		after := scheduleSnapshot(schedule)
		after["shifts_updated"] = updated
		after["version"] = event.Version
		if err := s.record(ctx, txRepo, event, actorID, model.ActionUpdateSchedule, before, after); err != nil {
			return err
		}

		resp, err = loadEventResponse(ctx, txRepo, id)
		return err
	})
	if err != nil {
		s.logFailure("修改活动时间失败", id, err)
		return nil, err
	}
	return resp, nil
}

// checkWorkerOverlaps 班次时间同步后，活动内每个有效排班的员工不得与其他有效排班重叠
func checkWorkerOverlaps(ctx context.Context, txRepo *repository.Repository, eventID string, start, end time.Time) error {
	active, err := txRepo.Assignment.ListActiveByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("查询活动有效排班失败: %w", err)
	}
	for _, a := range active {
		overlapping, err := txRepo.Assignment.ListActiveByWorkerOverlapping(ctx, a.WorkerID, start, end, a.AssignmentID)
		if err != nil {
			return fmt.Errorf("查询员工重叠排班失败: %w", err)
		}
		if len(overlapping) > 0 {
			return fmt.Errorf("%w: 员工 %s 与排班 %s 冲突", ErrScheduleOverlap, a.WorkerID, overlapping[0].AssignmentID)
		}
	}
	return nil
}

// ────────────────────── RecalculateEvent ──────────────────────

// RecalculateEvent 手动触发汇总重算，修复历史数据时使用
func (s *eventService) RecalculateEvent(ctx context.Context, id string, actorID string) (*dto.EventResponse, error) {
	var resp *dto.EventResponse
	err := s.runInTx(ctx, "recalculate", func(ctx context.Context, txRepo *repository.Repository) error {
		event, err := s.lockEvent(ctx, txRepo, id, false)
		if err != nil {
			return err
		}
		before := eventSnapshot(event)
		if _, err := s.recalc.Recalculate(ctx, txRepo, event); err != nil {
			return err
		}
		if err := s.record(ctx, txRepo, event, actorID, model.ActionRecalculate, before, eventSnapshot(event)); err != nil {
			return err
		}

		resp, err = loadEventResponse(ctx, txRepo, id)
		return err
	})
	if err != nil {
		s.logFailure("重算活动汇总失败", id, err)
		return nil, err
	}
	return resp, nil
}

// ────────────────────── ListActivityLogs ──────────────────────

func (s *eventService) ListActivityLogs(ctx context.Context, id string, req *dto.ActivityLogListRequest) ([]dto.ActivityLogResponse, int64, error) {
	if _, err := s.repo.Event.GetByID(ctx, id); err != nil {
		return nil, 0, notFound(err, ErrEventNotFound)
	}

	logs, total, err := s.repo.ActivityLog.ListByEvent(ctx, id, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询审计日志失败", zap.String("event_id", id), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ActivityLogResponse, 0, len(logs))
	for i := range logs {
		result = append(result, toActivityLogResponse(&logs[i]))
	}
	return result, total, nil
}

// ────────────────────── 内部方法 ──────────────────────

// loadEventResponse 读取活动（含时间表、技能需求与班次）
func loadEventResponse(ctx context.Context, repo *repository.Repository, id string) (*dto.EventResponse, error) {
	event, err := repo.Event.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	shifts, err := repo.Shift.ListByEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	event.Shifts = shifts
	return toEventResponse(event), nil
}

// logFailure 业务错误不记录 error 级日志
func (s *eventService) logFailure(msg, eventID string, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrConsistency):
		s.logger.Error(msg+"，变更已回滚", zap.String("event_id", eventID), zap.Error(err))
	case pkgerrors.IsConcurrency(err), errors.Is(err, pkgerrors.ErrNotFound):
	case isBusinessError(err):
		s.logger.Debug(msg, zap.String("event_id", eventID), zap.Error(err))
	default:
		s.logger.Error(msg, zap.String("event_id", eventID), zap.Error(err))
	}
}

func eventSnapshot(e *model.Event) map[string]any {
	return map[string]any{
		"status":                 e.Status,
		"version":                e.Version,
		"total_workers_needed":   e.TotalWorkersNeeded,
		"assigned_workers_count": e.AssignedWorkersCount,
		"total_shifts_count":     e.TotalShiftsCount,
		"assigned_shifts_count":  e.AssignedShiftsCount,
		"total_hours_worked":     e.TotalHoursWorked,
		"total_pay_amount":       e.TotalPayAmount,
	}
}

func scheduleSnapshot(sc *model.EventSchedule) map[string]any {
	return map[string]any{
		"start_time_utc": sc.StartTimeUTC.UTC(),
		"end_time_utc":   sc.EndTimeUTC.UTC(),
		"break_minutes":  sc.BreakMinutes,
	}
}
