package service

import (
	"time"

	"social-catering/backend/internal/dto"
	"social-catering/backend/internal/model"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// toAssignmentResponse 转换排班为响应；shift 为空时有效薪资按 0 费率计算
func toAssignmentResponse(a *model.Assignment, shift *model.Shift) *dto.AssignmentResponse {
	resp := &dto.AssignmentResponse{
		ID:                  a.AssignmentID,
		ShiftID:             a.ShiftID,
		WorkerID:            a.WorkerID,
		Status:              a.Status,
		ClockInAt:           formatTimePtr(a.ClockInAt),
		ClockOutAt:          formatTimePtr(a.ClockOutAt),
		BreakMinutes:        a.BreakMinutes,
		HoursWorked:         a.HoursWorked,
		OvertimeHours:       a.OvertimeHours,
		OriginalHoursWorked: a.OriginalHoursWorked,
		HourlyRate:          a.HourlyRate,
		EffectiveHours:      effectiveHours(a),
		EffectivePay:        effectivePay(a, shift),
		Approved:            a.Approved,
		ApprovedBy:          a.ApprovedBy,
		ApprovedAt:          formatTimePtr(a.ApprovedAt),
		ApprovalNotes:       a.ApprovalNotes,
		EditedBy:            a.EditedBy,
		EditedAt:            formatTimePtr(a.EditedAt),
		Notes:               a.Notes,
		CreatedAt:           formatTime(a.CreatedAt),
		UpdatedAt:           formatTime(a.UpdatedAt),
	}
	if a.Worker != nil {
		resp.WorkerName = a.Worker.Name
	}
	return resp
}

func toShiftResponse(s *model.Shift) dto.ShiftResponse {
	return dto.ShiftResponse{
		ID:                      s.ShiftID,
		EventID:                 s.EventID,
		SkillRequirementID:      s.EventSkillRequirementID,
		RoleNeeded:              s.RoleNeeded,
		StartTimeUTC:            formatTime(s.StartTimeUTC),
		EndTimeUTC:              formatTime(s.EndTimeUTC),
		Capacity:                s.Capacity,
		PayRate:                 s.PayRate,
		AutoGenerated:           s.AutoGenerated,
		RequiredCertificationID: s.RequiredCertificationID,
	}
}

func toShiftResponses(shifts []model.Shift) []dto.ShiftResponse {
	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, toShiftResponse(&shifts[i]))
	}
	return result
}

func toEventResponse(e *model.Event) *dto.EventResponse {
	resp := &dto.EventResponse{
		ID:                   e.EventID,
		Title:                e.Title,
		Status:               e.Status,
		TotalWorkersNeeded:   e.TotalWorkersNeeded,
		AssignedWorkersCount: e.AssignedWorkersCount,
		TotalShiftsCount:     e.TotalShiftsCount,
		AssignedShiftsCount:  e.AssignedShiftsCount,
		TotalHoursWorked:     e.TotalHoursWorked,
		TotalPayAmount:       e.TotalPayAmount,
		ShiftsGenerated:      e.ShiftsGenerated,
		PublishedAt:          formatTimePtr(e.PublishedAt),
		Version:              e.Version,
		CreatedAt:            formatTime(e.CreatedAt),
		UpdatedAt:            formatTime(e.UpdatedAt),
	}
	if e.Schedule != nil {
		resp.Schedule = &dto.EventScheduleResponse{
			StartTimeUTC: formatTime(e.Schedule.StartTimeUTC),
			EndTimeUTC:   formatTime(e.Schedule.EndTimeUTC),
			BreakMinutes: e.Schedule.BreakMinutes,
		}
	}
	for _, req := range e.SkillRequirements {
		resp.SkillRequirements = append(resp.SkillRequirements, dto.SkillRequirementResponse{
			ID:                      req.EventSkillRequirementID,
			SkillName:               req.SkillName,
			NeededWorkers:           req.NeededWorkers,
			PayRate:                 req.PayRate,
			RequiredCertificationID: req.RequiredCertificationID,
		})
	}
	if len(e.Shifts) > 0 {
		resp.Shifts = toShiftResponses(e.Shifts)
	}
	return resp
}

func toActivityLogResponse(l *model.ActivityLog) dto.ActivityLogResponse {
	return dto.ActivityLogResponse{
		ID:         l.ActivityLogID,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		EventID:    l.EventID,
		Action:     l.Action,
		ActorID:    l.ActorID,
		Before:     []byte(l.Before),
		After:      []byte(l.After),
		CreatedAt:  formatTime(l.CreatedAt),
	}
}
