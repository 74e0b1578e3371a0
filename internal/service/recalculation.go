package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"social-catering/backend/internal/model"
	"social-catering/backend/internal/repository"
	pkgerrors "social-catering/backend/pkg/errors"
	"social-catering/backend/pkg/metrics"
)

// recalculator 活动汇总重算
// 汇总是有效排班数据的缓存视图，每次变更后整体重算而非增量修补
type recalculator struct {
	metrics metrics.Collector
	logger  *zap.Logger
}

func newRecalculator(m metrics.Collector, logger *zap.Logger) *recalculator {
	return &recalculator{metrics: m, logger: logger}
}

// Recalculate 在调用方事务内重算并写入活动汇总。
// 调用方须已持有活动行锁；任何失败都以 ErrConsistency 返回，由调用方回滚整个变更。
func (r *recalculator) Recalculate(ctx context.Context, txRepo *repository.Repository, event *model.Event) (repository.EventAggregates, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveRecalculation(time.Since(start).Seconds()) }()

	shifts, err := txRepo.Shift.ListByEvent(ctx, event.EventID)
	if err != nil {
		return repository.EventAggregates{}, consistencyError("查询班次", err)
	}
	assignments, err := txRepo.Assignment.ListActiveByEvent(ctx, event.EventID)
	if err != nil {
		return repository.EventAggregates{}, consistencyError("查询有效排班", err)
	}
	var reqs []model.EventSkillRequirement
	if len(shifts) == 0 {
		if reqs, err = txRepo.SkillRequirement.ListByEvent(ctx, event.EventID); err != nil {
			return repository.EventAggregates{}, consistencyError("查询技能需求", err)
		}
	}

	agg := computeAggregates(event, shifts, assignments, reqs)
	if err := txRepo.Event.UpdateAggregates(ctx, event.EventID, agg); err != nil {
		return repository.EventAggregates{}, consistencyError("写入活动汇总", err)
	}
	applyAggregates(event, agg)

	r.logger.Debug("活动汇总已重算",
		zap.String("event_id", event.EventID),
		zap.String("total_hours_worked", agg.TotalHoursWorked.StringFixed(2)),
		zap.String("total_pay_amount", agg.TotalPayAmount.StringFixed(2)),
		zap.Int("assigned_shifts_count", agg.AssignedShiftsCount),
	)
	return agg, nil
}

// computeAggregates 纯函数：由当前班次与有效排班计算汇总
//   - total_workers_needed：班次容量之和；尚无班次时取技能需求人数之和
//   - 已发布活动在全部班次都有人后转为 assigned，失去覆盖后回到 published
func computeAggregates(event *model.Event, shifts []model.Shift, active []model.Assignment, reqs []model.EventSkillRequirement) repository.EventAggregates {
	shiftByID := make(map[string]*model.Shift, len(shifts))
	for i := range shifts {
		shiftByID[shifts[i].ShiftID] = &shifts[i]
	}

	agg := repository.EventAggregates{
		Status:           event.Status,
		TotalShiftsCount: len(shifts),
		TotalHoursWorked: decimal.Zero,
		TotalPayAmount:   decimal.Zero,
	}

	if len(shifts) > 0 {
		for _, s := range shifts {
			agg.TotalWorkersNeeded += s.Capacity
		}
	} else {
		for _, req := range reqs {
			agg.TotalWorkersNeeded += req.NeededWorkers
		}
	}

	covered := make(map[string]bool, len(shifts))
	for i := range active {
		a := &active[i]
		if !a.IsActive() {
			continue
		}
		shift := shiftByID[a.ShiftID]
		agg.AssignedWorkersCount++
		covered[a.ShiftID] = true
		agg.TotalHoursWorked = agg.TotalHoursWorked.Add(effectiveHours(a))
		agg.TotalPayAmount = agg.TotalPayAmount.Add(effectivePay(a, shift))
	}
	agg.AssignedShiftsCount = len(covered)
	agg.TotalHoursWorked = agg.TotalHoursWorked.Round(2)
	agg.TotalPayAmount = agg.TotalPayAmount.Round(2)

	fullyCovered := agg.TotalShiftsCount > 0 && agg.AssignedShiftsCount == agg.TotalShiftsCount
	switch {
	case event.Status == model.EventStatusPublished && fullyCovered:
		agg.Status = model.EventStatusAssigned
	case event.Status == model.EventStatusAssigned && !fullyCovered:
		agg.Status = model.EventStatusPublished
	}
	return agg
}

func applyAggregates(event *model.Event, agg repository.EventAggregates) {
	event.Status = agg.Status
	event.TotalWorkersNeeded = agg.TotalWorkersNeeded
	event.AssignedWorkersCount = agg.AssignedWorkersCount
	event.TotalShiftsCount = agg.TotalShiftsCount
	event.AssignedShiftsCount = agg.AssignedShiftsCount
	event.TotalHoursWorked = agg.TotalHoursWorked
	event.TotalPayAmount = agg.TotalPayAmount
}

func consistencyError(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", pkgerrors.ErrConsistency, step, err)
}
