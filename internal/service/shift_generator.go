package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"social-catering/backend/internal/model"
	"social-catering/backend/internal/repository"
)

// buildShifts 每个技能需求生成 needed_workers 个班次
// 时间取活动时间表，费率取需求费率，并关联到该需求
func buildShifts(eventID string, schedule *model.EventSchedule, reqs []model.EventSkillRequirement, capacity int, actorID *string) []model.Shift {
	if capacity <= 0 {
		capacity = 1
	}

	var shifts []model.Shift
	for i := range reqs {
		req := &reqs[i]
		for n := 0; n < req.NeededWorkers; n++ {
			reqID := req.EventSkillRequirementID
			shift := model.Shift{
				ShiftID:                 uuid.New().String(),
				EventID:                 eventID,
				EventSkillRequirementID: &reqID,
				RoleNeeded:              req.SkillName,
				StartTimeUTC:            schedule.StartTimeUTC.UTC(),
				EndTimeUTC:              schedule.EndTimeUTC.UTC(),
				Capacity:                capacity,
				PayRate:                 decimal.NewNullDecimal(req.PayRate),
				AutoGenerated:           true,
				RequiredCertificationID: req.RequiredCertificationID,
			}
			shift.CreatedBy = actorID
			shift.UpdatedBy = actorID
			shifts = append(shifts, shift)
		}
	}
	return shifts
}

// generateShifts 幂等生成班次：已有班次时直接返回，created 为 false。
// 调用方须已持有活动行锁。
func (s *eventService) generateShifts(ctx context.Context, txRepo *repository.Repository, event *model.Event, actorID string) (shifts []model.Shift, created bool, err error) {
	existing, err := txRepo.Shift.ListByEvent(ctx, event.EventID)
	if err != nil {
		return nil, false, fmt.Errorf("查询已有班次失败: %w", err)
	}
	if len(existing) > 0 {
		return existing, false, nil
	}

	schedule, err := txRepo.EventSchedule.GetByEvent(ctx, event.EventID)
	if err != nil {
		return nil, false, notFound(err, ErrScheduleMissing)
	}
	reqs, err := txRepo.SkillRequirement.ListByEvent(ctx, event.EventID)
	if err != nil {
		return nil, false, fmt.Errorf("查询技能需求失败: %w", err)
	}
	if len(reqs) == 0 {
		return nil, false, ErrNoSkillRequirements
	}

	shifts = buildShifts(event.EventID, schedule, reqs, s.engine.DefaultShiftCapacity, actorPtr(actorID))
	if len(shifts) == 0 {
		return nil, false, ErrNoSkillRequirements
	}
	if err := txRepo.Shift.BatchCreate(ctx, shifts); err != nil {
		return nil, false, err
	}

	// 返回值附带需求，便于响应与后续校验使用
	byID := make(map[string]*model.EventSkillRequirement, len(reqs))
	for i := range reqs {
		byID[reqs[i].EventSkillRequirementID] = &reqs[i]
	}
	for i := range shifts {
		shifts[i].SkillRequirement = byID[*shifts[i].EventSkillRequirementID]
	}

	event.ShiftsGenerated = true
	event.TotalShiftsCount = len(shifts)
	return shifts, true, nil
}
