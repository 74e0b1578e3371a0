package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"social-catering/backend/config"
	"social-catering/backend/internal/dto"
	"social-catering/backend/internal/model"
	"social-catering/backend/internal/repository"
	pkgerrors "social-catering/backend/pkg/errors"
	"social-catering/backend/pkg/metrics"
)

// AssignmentService 排班业务接口
// 所有变更都在单个事务内完成：加锁 → 重新校验 → 写入 → 重算汇总 → 审计
type AssignmentService interface {
	TryAssignWorker(ctx context.Context, shiftID string, req *dto.AssignWorkerRequest, actorID string) (*dto.AssignResult, error)
	ValidateCandidate(ctx context.Context, shiftID string, req *dto.ValidateCandidateRequest) (*dto.ValidationResult, error)
	ConfirmAssignment(ctx context.Context, id string, actorID string) (*dto.AssignmentResponse, error)
	ClockIn(ctx context.Context, id string, req *dto.ClockInRequest, actorID string) (*dto.AssignmentResponse, error)
	ClockOut(ctx context.Context, id string, req *dto.ClockOutRequest, actorID string) (*dto.AssignmentResponse, error)
	EditAssignmentHours(ctx context.Context, id string, req *dto.EditHoursRequest, actorID string) (*dto.AssignmentResponse, error)
	ApproveAssignment(ctx context.Context, id string, req *dto.ApproveRequest, actorID string) (*dto.AssignmentResponse, error)
	UnapproveAssignment(ctx context.Context, id string, req *dto.UnapproveRequest, actorID string) (*dto.AssignmentResponse, error)
	MarkNoShow(ctx context.Context, id string, req *dto.StatusChangeRequest, actorID string) (*dto.AssignmentResponse, error)
	RemoveFromJob(ctx context.Context, id string, req *dto.StatusChangeRequest, actorID string) (*dto.AssignmentResponse, error)
	DeleteAssignment(ctx context.Context, id string, actorID string) error
}

type assignmentService struct {
	*engineDeps
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(engine config.EngineConfig, repo *repository.Repository, collector metrics.Collector, logger *zap.Logger) AssignmentService {
	return newAssignmentService(newEngineDeps(engine, repo, collector, logger))
}

func newAssignmentService(deps *engineDeps) *assignmentService {
	return &assignmentService{engineDeps: deps}
}

// lockedAssignment 事务内已加锁的排班及其上下文
type lockedAssignment struct {
	event      *model.Event
	shift      *model.Shift
	assignment *model.Assignment
}

// lockAssignment 按 活动 → 班次 → 排班 的固定顺序加锁，避免死锁
func (s *assignmentService) lockAssignment(ctx context.Context, txRepo *repository.Repository, id string) (*lockedAssignment, error) {
	current, err := txRepo.Assignment.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAssignmentNotFound)
	}
	shift := current.Shift
	if shift == nil {
		if shift, err = txRepo.Shift.GetByID(ctx, current.ShiftID); err != nil {
			return nil, notFound(err, ErrShiftNotFound)
		}
	}

	event, err := txRepo.Event.GetForUpdate(ctx, shift.EventID)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	if event.IsClosed() {
		return nil, ErrEventClosed
	}
	locked, err := txRepo.Shift.GetForUpdate(ctx, shift.ShiftID)
	if err != nil {
		return nil, notFound(err, ErrShiftNotFound)
	}
	locked.SkillRequirement = shift.SkillRequirement

	a, err := txRepo.Assignment.GetForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAssignmentNotFound)
	}
	a.Shift = locked
	a.Worker = current.Worker

	return &lockedAssignment{event: event, shift: locked, assignment: a}, nil
}

// save 写回排班；changesTotals 为 true 时同事务重算活动汇总
func (s *assignmentService) save(ctx context.Context, txRepo *repository.Repository, l *lockedAssignment, actorID string, changesTotals bool) error {
	l.assignment.UpdatedBy = actorPtr(actorID)
	if err := txRepo.Assignment.Update(ctx, l.assignment); err != nil {
		return err
	}
	if !changesTotals {
		return nil
	}
	_, err := s.recalc.Recalculate(ctx, txRepo, l.event)
	return err
}

func (s *assignmentService) record(ctx context.Context, txRepo *repository.Repository, l *lockedAssignment, actorID, action string, before, after any) error {
	return s.audit(txRepo, l.event.EventID).Record(ctx, actorPtr(actorID), model.EntityAssignment, l.assignment.AssignmentID, action, before, after)
}

// ────────────────────── TryAssignWorker ──────────────────────

func (s *assignmentService) TryAssignWorker(ctx context.Context, shiftID string, req *dto.AssignWorkerRequest, actorID string) (*dto.AssignResult, error) {
	var result *dto.AssignResult

	err := s.runInTx(ctx, "assign", func(ctx context.Context, txRepo *repository.Repository) error {
		shift, err := txRepo.Shift.GetByID(ctx, shiftID)
		if err != nil {
			return notFound(err, ErrShiftNotFound)
		}
		event, err := txRepo.Event.GetForUpdate(ctx, shift.EventID)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		if event.IsClosed() {
			return ErrEventClosed
		}
		locked, err := txRepo.Shift.GetForUpdate(ctx, shiftID)
		if err != nil {
			return notFound(err, ErrShiftNotFound)
		}
		locked.SkillRequirement = shift.SkillRequirement

		worker, err := txRepo.Worker.GetForUpdate(ctx, req.WorkerID)
		if err != nil {
			return notFound(err, ErrWorkerNotFound)
		}

		cc, err := loadCandidateContext(ctx, txRepo, locked, worker, "")
		if err != nil {
			return err
		}
		if failures := EvaluateCandidate(cc); len(failures) > 0 {
			result = &dto.AssignResult{Assigned: false, Failures: failures}
			return nil
		}

		a := &model.Assignment{
			AssignmentID: uuid.New().String(),
			ShiftID:      locked.ShiftID,
			WorkerID:     worker.WorkerID,
			Status:       model.AssignmentStatusAssigned,
			AssignedBy:   actorPtr(actorID),
			Notes:        req.Notes,
		}
		a.CreatedBy = actorPtr(actorID)
		a.UpdatedBy = actorPtr(actorID)
		if err := txRepo.Assignment.Create(ctx, a); err != nil {
			return err
		}
		a.Shift = locked
		a.Worker = worker

		l := &lockedAssignment{event: event, shift: locked, assignment: a}
		if _, err := s.recalc.Recalculate(ctx, txRepo, event); err != nil {
			return err
		}
		if err := s.record(ctx, txRepo, l, actorID, model.ActionAssign, nil, assignmentSnapshot(a)); err != nil {
			return err
		}

		result = &dto.AssignResult{Assigned: true, Assignment: toAssignmentResponse(a, locked)}
		return nil
	})

	switch {
	case err != nil && pkgerrors.IsConcurrency(err):
		s.metrics.RecordAssignAttempt(metrics.OutcomeConflict)
		return nil, err
	case err != nil:
		s.metrics.RecordAssignAttempt(metrics.OutcomeError)
		if !errors.Is(err, pkgerrors.ErrNotFound) {
			s.logger.Error("派工失败", zap.String("shift_id", shiftID), zap.String("worker_id", req.WorkerID), zap.Error(err))
		}
		return nil, err
	case !result.Assigned:
		s.metrics.RecordAssignAttempt(metrics.OutcomeRejected)
		for _, f := range result.Failures {
			s.metrics.RecordValidationFailure(f.Reason)
		}
		return result, nil
	}

	s.metrics.RecordAssignAttempt(metrics.OutcomeAssigned)
	s.logger.Info("派工成功",
		zap.String("shift_id", shiftID),
		zap.String("worker_id", req.WorkerID),
		zap.String("assignment_id", result.Assignment.ID),
	)
	return result, nil
}

// ────────────────────── ValidateCandidate ──────────────────────

// ValidateCandidate 只读校验，不加锁；结果仅供界面提示，派工时会在事务内重新校验
func (s *assignmentService) ValidateCandidate(ctx context.Context, shiftID string, req *dto.ValidateCandidateRequest) (*dto.ValidationResult, error) {
	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		return nil, notFound(err, ErrShiftNotFound)
	}
	worker, err := s.repo.Worker.GetByID(ctx, req.WorkerID)
	if err != nil {
		return nil, notFound(err, ErrWorkerNotFound)
	}

	exclude := ""
	if req.AssignmentID != nil {
		exclude = *req.AssignmentID
	}
	cc, err := loadCandidateContext(ctx, s.repo, shift, worker, exclude)
	if err != nil {
		s.logger.Error("加载校验上下文失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	failures := EvaluateCandidate(cc)
	return &dto.ValidationResult{Valid: len(failures) == 0, Failures: failures}, nil
}

// ────────────────────── ConfirmAssignment ──────────────────────

func (s *assignmentService) ConfirmAssignment(ctx context.Context, id string, actorID string) (*dto.AssignmentResponse, error) {
	return s.mutate(ctx, "confirm", id, func(ctx context.Context, txRepo *repository.Repository, l *lockedAssignment) error {
		a := l.assignment
		switch a.Status {
		case model.AssignmentStatusConfirmed:
			return nil
		case model.AssignmentStatusAssigned:
		default:
			return ErrInvalidTransition
		}

		before := assignmentSnapshot(a)
		a.Status = model.AssignmentStatusConfirmed
		if err := s.save(ctx, txRepo, l, actorID, true); err != nil {
			return err
		}
		return s.record(ctx, txRepo, l, actorID, model.ActionConfirm, before, assignmentSnapshot(a))
	})
}

// ────────────────────── ClockIn / ClockOut ──────────────────────

func (s *assignmentService) ClockIn(ctx context.Context, id string, req *dto.ClockInRequest, actorID string) (*dto.AssignmentResponse, error) {
	return s.mutate(ctx, "clock_in", id, func(ctx context.Context, txRepo *repository.Repository, l *lockedAssignment) error {
		a := l.assignment
		if !canCancel(a) {
			return ErrInvalidTransition
		}

		before := assignmentSnapshot(a)
		at := s.at(req.At)
		a.ClockInAt = &at
		if err := s.save(ctx, txRepo, l, actorID, false); err != nil {
			return err
		}
		return s.record(ctx, txRepo, l, actorID, model.ActionClockIn, before, assignmentSnapshot(a))
	})
}

func (s *assignmentService) ClockOut(ctx context.Context, id string, req *dto.ClockOutRequest, actorID string) (*dto.AssignmentResponse, error) {
	return s.mutate(ctx, "clock_out", id, func(ctx context.Context, txRepo *repository.Repository, l *lockedAssignment) error {
		a := l.assignment
		if !canCancel(a) {
			return ErrInvalidTransition
		}
		if a.ClockInAt == nil {
			return ErrNotClockedIn
		}
		at := s.at(req.At)
		if !at.After(*a.ClockInAt) {
			return ErrInvalidClockTimes
		}

		before := assignmentSnapshot(a)
		a.ClockOutAt = &at
		if req.BreakMinutes != nil {
			a.BreakMinutes = *req.BreakMinutes
		}
		hours := computeHours(*a.ClockInAt, at, a.BreakMinutes)
		if !validHours(hours, s.engine.MaxHoursPerAssignment) {
			return ErrInvalidHours
		}
		recordHours(a, hours, s.engine.OvertimeThresholdHours)
		a.Status = model.AssignmentStatusCompleted

		if err := s.save(ctx, txRepo, l, actorID, true); err != nil {
			return err
		}
		return s.record(ctx, txRepo, l, actorID, model.ActionClockOut, before, assignmentSnapshot(a))
	})
}

// ────────────────────── EditAssignmentHours ──────────────────────

// EditAssignmentHours 修改工时；已审批的排班会被撤销审批，需重新审批
func (s *assignmentService) EditAssignmentHours(ctx context.Context, id string, req *dto.EditHoursRequest, actorID string) (*dto.AssignmentResponse, error) {
	return s.mutate(ctx, "edit_hours", id, func(ctx context.Context, txRepo *repository.Repository, l *lockedAssignment) error {
		a := l.assignment
		if !a.IsActive() {
			return ErrAssignmentInactive
		}

		now := s.now()
		before := assignmentSnapshot(a)
		wasApproved := a.Approved
		priorApproval := map[string]any{
			"approved":       a.Approved,
			"approved_by":    a.ApprovedBy,
			"approved_at":    a.ApprovedAt,
			"approval_notes": a.ApprovalNotes,
		}
		clearApproval(a)
		if !canEditHours(a, l.shift, now) {
			return ErrShiftNotEnded
		}

		if req.ClockInAt != nil {
			in := req.ClockInAt.UTC()
			a.ClockInAt = &in
		}
		if req.ClockOutAt != nil {
			out := req.ClockOutAt.UTC()
			a.ClockOutAt = &out
		}
		if req.BreakMinutes != nil {
			a.BreakMinutes = *req.BreakMinutes
		}
		timesChanged := req.ClockInAt != nil || req.ClockOutAt != nil || req.BreakMinutes != nil
		if timesChanged && a.ClockInAt != nil && a.ClockOutAt != nil && !a.ClockOutAt.After(*a.ClockInAt) {
			return ErrInvalidClockTimes
		}

		var hours decimal.Decimal
		switch {
		case req.HoursWorked != nil:
			hours = req.HoursWorked.Round(2)
		case timesChanged && a.ClockInAt != nil && a.ClockOutAt != nil:
			hours = computeHours(*a.ClockInAt, *a.ClockOutAt, a.BreakMinutes)
		default:
			return ErrHoursRequired
		}
		if !validHours(hours, s.engine.MaxHoursPerAssignment) {
			return ErrInvalidHours
		}

		recordHours(a, hours, s.engine.OvertimeThresholdHours)
		a.EditedBy = actorPtr(actorID)
		a.EditedAt = &now
		a.Status = model.AssignmentStatusCompleted

		if err := s.save(ctx, txRepo, l, actorID, true); err != nil {
			return err
		}
		if wasApproved {
			after := map[string]any{"approved": false, "reason": "hours_edited"}
			if err := s.record(ctx, txRepo, l, actorID, model.ActionUnapprove, priorApproval, after); err != nil {
				return err
			}
		}
		after := assignmentSnapshot(a)
		if req.Reason != nil {
			after["reason"] = *req.Reason
		}
		return s.record(ctx, txRepo, l, actorID, model.ActionEditHours, before, after)
	})
}

// ────────────────────── Approve / Unapprove ──────────────────────

// ApproveAssignment 审批；重复审批为空操作
func (s *assignmentService) ApproveAssignment(ctx context.Context, id string, req *dto.ApproveRequest, actorID string) (*dto.AssignmentResponse, error) {
	return s.mutate(ctx, "approve", id, func(ctx context.Context, txRepo *repository.Repository, l *lockedAssignment) error {
		a := l.assignment
		if a.Approved {
			return nil
		}
		if !a.IsActive() {
			return ErrInvalidTransition
		}
		now := s.now()
		if !canApprove(l.shift, now) {
			return ErrShiftNotEnded
		}

		before := assignmentSnapshot(a)
		a.Approved = true
		a.ApprovedBy = actorPtr(actorID)
		a.ApprovedAt = &now
		a.ApprovalNotes = req.Notes
		a.Status = model.AssignmentStatusCompleted

		if err := s.save(ctx, txRepo, l, actorID, true); err != nil {
			return err
		}
		return s.record(ctx, txRepo, l, actorID, model.ActionApprove, before, assignmentSnapshot(a))
	})
}

func (s *assignmentService) UnapproveAssignment(ctx context.Context, id string, req *dto.UnapproveRequest, actorID string) (*dto.AssignmentResponse, error) {
	return s.mutate(ctx, "unapprove", id, func(ctx context.Context, txRepo *repository.Repository, l *lockedAssignment) error {
		a := l.assignment
		if !a.Approved {
			return ErrNotApproved
		}

		before := assignmentSnapshot(a)
		clearApproval(a)
		if err := s.save(ctx, txRepo, l, actorID, false); err != nil {
			return err
		}
		after := assignmentSnapshot(a)
		after["reason"] = req.Reason
		return s.record(ctx, txRepo, l, actorID, model.ActionUnapprove, before, after)
	})
}

// ────────────────────── MarkNoShow / RemoveFromJob ──────────────────────

func (s *assignmentService) MarkNoShow(ctx context.Context, id string, req *dto.StatusChangeRequest, actorID string) (*dto.AssignmentResponse, error) {
	return s.cancel(ctx, id, model.AssignmentStatusNoShow, model.ActionNoShow, req, actorID)
}

func (s *assignmentService) RemoveFromJob(ctx context.Context, id string, req *dto.StatusChangeRequest, actorID string) (*dto.AssignmentResponse, error) {
	return s.cancel(ctx, id, model.AssignmentStatusCancelled, model.ActionRemove, req, actorID)
}

// cancel 转入终态，工时清零；审计附带员工、活动与岗位信息
func (s *assignmentService) cancel(ctx context.Context, id, status, action string, req *dto.StatusChangeRequest, actorID string) (*dto.AssignmentResponse, error) {
	return s.mutate(ctx, action, id, func(ctx context.Context, txRepo *repository.Repository, l *lockedAssignment) error {
		a := l.assignment
		if !canCancel(a) {
			return ErrInvalidTransition
		}

		before := assignmentSnapshot(a)
		a.Status = status
		resetHours(a)
		if req.Notes != nil {
			a.Notes = req.Notes
		}
		if err := s.save(ctx, txRepo, l, actorID, true); err != nil {
			return err
		}

		after := assignmentSnapshot(a)
		after["worker_id"] = a.WorkerID
		if a.Worker != nil {
			after["worker_name"] = a.Worker.Name
		}
		after["event_id"] = l.event.EventID
		after["event_title"] = l.event.Title
		after["role"] = l.shift.RequiredSkill()
		after["notes"] = req.Notes
		return s.record(ctx, txRepo, l, actorID, action, before, after)
	})
}

// ────────────────────── DeleteAssignment ──────────────────────

// DeleteAssignment 物理删除；已记录工时的排班只能移出活动
func (s *assignmentService) DeleteAssignment(ctx context.Context, id string, actorID string) error {
	return s.runInTx(ctx, "delete", func(ctx context.Context, txRepo *repository.Repository) error {
		l, err := s.lockAssignment(ctx, txRepo, id)
		if err != nil {
			return err
		}
		if l.assignment.HasRecordedHours() {
			return ErrAssignmentHasHours
		}

		before := assignmentSnapshot(l.assignment)
		if err := txRepo.Assignment.Delete(ctx, id); err != nil {
			return err
		}
		if _, err := s.recalc.Recalculate(ctx, txRepo, l.event); err != nil {
			return err
		}
		return s.record(ctx, txRepo, l, actorID, model.ActionDelete, before, nil)
	})
}

// ────────────────────── 内部方法 ──────────────────────

// mutate 加锁读取排班并在同一事务内执行变更
func (s *assignmentService) mutate(ctx context.Context, op, id string, fn func(ctx context.Context, txRepo *repository.Repository, l *lockedAssignment) error) (*dto.AssignmentResponse, error) {
	var resp *dto.AssignmentResponse
	err := s.runInTx(ctx, op, func(ctx context.Context, txRepo *repository.Repository) error {
		l, err := s.lockAssignment(ctx, txRepo, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, txRepo, l); err != nil {
			return err
		}
		resp = toAssignmentResponse(l.assignment, l.shift)
		return nil
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrConsistency) {
			s.logger.Error("汇总重算失败，变更已回滚", zap.String("op", op), zap.String("assignment_id", id), zap.Error(err))
		}
		return nil, err
	}
	return resp, nil
}

// at 请求未指定时间时取当前时间
func (s *assignmentService) at(t *time.Time) time.Time {
	if t == nil {
		return s.now()
	}
	return t.UTC()
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func actorPtr(actorID string) *string {
	if actorID == "" {
		return nil
	}
	return &actorID
}
