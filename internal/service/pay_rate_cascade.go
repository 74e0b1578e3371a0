package service

import (
	"context"

	"go.uber.org/zap"

	"social-catering/backend/internal/dto"
	"social-catering/backend/internal/model"
	"social-catering/backend/internal/repository"
	pkgerrors "social-catering/backend/pkg/errors"
)

// UpdateSkillRequirementPayRate 修改技能需求费率并级联到班次。
// 只更新仍跟随旧费率的班次：自动生成且未设费率，或费率等于旧费率。
// 级联或重算失败时需求费率一并回滚。
func (s *eventService) UpdateSkillRequirementPayRate(ctx context.Context, requirementID string, req *dto.UpdatePayRateRequest, actorID string) (*dto.CascadeResult, error) {
	newRate := req.PayRate.Round(2)
	if newRate.IsNegative() {
		return nil, ErrInvalidPayRate
	}

	var result *dto.CascadeResult
	err := s.runInTx(ctx, "pay_rate_cascade", func(ctx context.Context, txRepo *repository.Repository) error {
		current, err := txRepo.SkillRequirement.GetByID(ctx, requirementID)
		if err != nil {
			return notFound(err, ErrSkillRequirementNotFound)
		}
		event, err := s.lockEvent(ctx, txRepo, current.EventID, true)
		if err != nil {
			return err
		}
		if req.Version != nil && event.Version != *req.Version {
			return pkgerrors.ErrOptimisticLock
		}
		requirement, err := txRepo.SkillRequirement.GetForUpdate(ctx, requirementID)
		if err != nil {
			return notFound(err, ErrSkillRequirementNotFound)
		}

		oldRate := requirement.PayRate
		result = &dto.CascadeResult{
			RequirementID: requirement.EventSkillRequirementID,
			EventID:       event.EventID,
			Role:          requirement.SkillName,
			OldRate:       oldRate,
			NewRate:       newRate,
		}
		if oldRate.Equal(newRate) {
			return nil
		}

		if err := txRepo.SkillRequirement.UpdatePayRate(ctx, requirementID, newRate, actorPtr(actorID)); err != nil {
			return err
		}
		updated, err := txRepo.Shift.CascadePayRate(ctx, repository.PayRateCascade{
			EventID:       event.EventID,
			RequirementID: requirementID,
			SkillName:     requirement.SkillName,
			OldRate:       oldRate,
			NewRate:       newRate,
			UpdatedBy:     actorPtr(actorID),
		})
		if err != nil {
			return consistencyError("费率级联", err)
		}
		result.UpdatedShiftCount = int(updated)

		event.UpdatedBy = actorPtr(actorID)
		if err := txRepo.Event.Update(ctx, event); err != nil {
			return err
		}
		if _, err := s.recalc.Recalculate(ctx, txRepo, event); err != nil {
			return err
		}

		before := map[string]any{"pay_rate": oldRate}
		after := map[string]any{
			"old_rate":            oldRate,
			"new_rate":            newRate,
			"updated_shift_count": result.UpdatedShiftCount,
			"role":                requirement.SkillName,
		}
		return s.audit(txRepo, event.EventID).Record(ctx, actorPtr(actorID), model.EntitySkillRequirement, requirementID, model.ActionPayRateCascade, before, after)
	})
	if err != nil {
		s.logFailure("修改技能需求费率失败", requirementID, err)
		return nil, err
	}

	if !result.OldRate.Equal(result.NewRate) {
		s.metrics.RecordCascade(result.UpdatedShiftCount)
		s.logger.Info("技能需求费率已级联",
			zap.String("requirement_id", requirementID),
			zap.String("old_rate", result.OldRate.StringFixed(2)),
			zap.String("new_rate", result.NewRate.StringFixed(2)),
			zap.Int("updated_shift_count", result.UpdatedShiftCount),
		)
	}
	return result, nil
}
