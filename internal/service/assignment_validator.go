package service

import (
	"context"
	"fmt"
	"strings"

	"social-catering/backend/internal/dto"
	"social-catering/backend/internal/model"
	"social-catering/backend/internal/repository"
)

// CandidateContext 候选人校验所需的全部当前状态
// 必须在执行写入的同一事务内加载，避免检查与写入之间的竞态
type CandidateContext struct {
	Shift  *model.Shift
	Worker *model.Worker
	// ActiveCount 班次上的有效排班数（已排除正在调整的排班）
	ActiveCount int64
	// Overlapping 员工与该班次时间重叠的其他有效排班（含班次）
	Overlapping []model.Assignment
}

// EvaluateCandidate 纯判定函数：逐项检查，不短路，返回全部失败原因
func EvaluateCandidate(cc CandidateContext) []dto.ValidationFailure {
	failures := make([]dto.ValidationFailure, 0)
	shift, worker := cc.Shift, cc.Worker

	if !worker.Active {
		failures = append(failures, dto.ValidationFailure{
			Reason:  dto.ReasonWorkerInactive,
			Message: fmt.Sprintf("员工 %s 已停用", worker.Name),
		})
	}

	// 1. 容量
	if cc.ActiveCount >= int64(shift.Capacity) {
		failures = append(failures, dto.ValidationFailure{
			Reason:  dto.ReasonCapacityExceeded,
			Message: fmt.Sprintf("班次已满（%d/%d）", cc.ActiveCount, shift.Capacity),
		})
	}

	// 2. 时间重叠（半开区间），同一班次的重复排班单独标出
	var conflicts []string
	for _, other := range cc.Overlapping {
		if other.ShiftID == shift.ShiftID {
			failures = append(failures, dto.ValidationFailure{
				Reason:  dto.ReasonAlreadyAssigned,
				Message: "员工已在该班次上",
			})
			continue
		}
		if other.Shift == nil || !shift.Overlaps(other.Shift) {
			continue
		}
		conflicts = append(conflicts, fmt.Sprintf("%s %s–%s",
			other.Shift.RoleNeeded,
			other.Shift.StartTimeUTC.UTC().Format("2006-01-02 15:04"),
			other.Shift.EndTimeUTC.UTC().Format("15:04")))
	}
	if len(conflicts) > 0 {
		failures = append(failures, dto.ValidationFailure{
			Reason:  dto.ReasonTimeConflict,
			Message: "时间冲突: " + strings.Join(conflicts, "; "),
		})
	}

	// 3. 技能
	skill := shift.RequiredSkill()
	if !worker.Skills.Contains(skill) {
		failures = append(failures, dto.ValidationFailure{
			Reason:  dto.ReasonMissingSkill,
			Message: fmt.Sprintf("缺少技能: %s", skill),
		})
	}

	// 4. 证书：缺失或在班次结束前过期
	if certID := requiredCertification(shift); certID != "" {
		cert, ok := worker.Certification(certID)
		switch {
		case !ok:
			failures = append(failures, dto.ValidationFailure{
				Reason:  dto.ReasonMissingCertification,
				Message: fmt.Sprintf("缺少证书: %s", certID),
			})
		case !cert.ValidThrough(shift.EndTimeUTC):
			failures = append(failures, dto.ValidationFailure{
				Reason:  dto.ReasonExpiredCertification,
				Message: fmt.Sprintf("证书 %s 将于 %s 过期，早于班次结束", certID, cert.ExpiresAt.UTC().Format("2006-01-02 15:04")),
			})
		}
	}

	return failures
}

// requiredCertification 班次自身要求优先，其次取关联技能需求的要求
func requiredCertification(shift *model.Shift) string {
	if shift.RequiredCertificationID != nil && *shift.RequiredCertificationID != "" {
		return *shift.RequiredCertificationID
	}
	if shift.SkillRequirement != nil && shift.SkillRequirement.RequiredCertificationID != nil {
		return *shift.SkillRequirement.RequiredCertificationID
	}
	return ""
}

// loadCandidateContext 读取容量与重叠排班；excludeAssignmentID 为正在调整的排班
func loadCandidateContext(ctx context.Context, repo *repository.Repository, shift *model.Shift, worker *model.Worker, excludeAssignmentID string) (CandidateContext, error) {
	count, err := repo.Assignment.CountActiveByShift(ctx, shift.ShiftID, excludeAssignmentID)
	if err != nil {
		return CandidateContext{}, fmt.Errorf("统计班次有效排班失败: %w", err)
	}
	overlapping, err := repo.Assignment.ListActiveByWorkerOverlapping(ctx, worker.WorkerID, shift.StartTimeUTC, shift.EndTimeUTC, excludeAssignmentID)
	if err != nil {
		return CandidateContext{}, fmt.Errorf("查询员工重叠排班失败: %w", err)
	}
	return CandidateContext{
		Shift:       shift,
		Worker:      worker,
		ActiveCount: count,
		Overlapping: overlapping,
	}, nil
}
