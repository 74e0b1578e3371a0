package service

import (
	"time"

	"github.com/shopspring/decimal"

	"social-catering/backend/internal/model"
)

var secondsPerHour = decimal.NewFromInt(3600)

// computeHours 由上下班时间计算工时：max(0, 时长 - 休息) / 60，保留两位小数
func computeHours(clockIn, clockOut time.Time, breakMinutes int) decimal.Decimal {
	net := int64(clockOut.Sub(clockIn)/time.Second) - int64(breakMinutes)*60
	if net <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(net).Div(secondsPerHour).Round(2)
}

// computeOvertime 超出阈值的部分计为加班
func computeOvertime(hours decimal.Decimal, thresholdHours int) decimal.Decimal {
	over := hours.Sub(decimal.NewFromInt(int64(thresholdHours)))
	if over.IsNegative() {
		return decimal.Zero
	}
	return over.Round(2)
}

// effectiveHours 汇总使用的工时：已录入的工时优先，其次由打卡时间推算，否则为 0
func effectiveHours(a *model.Assignment) decimal.Decimal {
	if a.HoursWorked.Valid {
		return a.HoursWorked.Decimal
	}
	if a.ClockInAt != nil && a.ClockOutAt != nil {
		return computeHours(*a.ClockInAt, *a.ClockOutAt, a.BreakMinutes)
	}
	return decimal.Zero
}

// effectiveRate 排班自身费率优先，其次为班次费率，否则为 0
func effectiveRate(a *model.Assignment, shift *model.Shift) decimal.Decimal {
	if a.HourlyRate.Valid {
		return a.HourlyRate.Decimal
	}
	if shift != nil && shift.PayRate.Valid {
		return shift.PayRate.Decimal
	}
	return decimal.Zero
}

// effectivePay 工时 × 费率，保留两位小数
func effectivePay(a *model.Assignment, shift *model.Shift) decimal.Decimal {
	return effectiveHours(a).Mul(effectiveRate(a, shift)).Round(2)
}

// canEditHours 班次已结束且未审批
func canEditHours(a *model.Assignment, shift *model.Shift, now time.Time) bool {
	return shift.HasEnded(now) && !a.Approved
}

// canApprove 班次已结束；进行中或未来的班次一律不可审批
func canApprove(shift *model.Shift, now time.Time) bool {
	return shift.HasEnded(now)
}

// canCancel 只有 assigned / confirmed 可以转为 cancelled 或 no_show
func canCancel(a *model.Assignment) bool {
	return a.Status == model.AssignmentStatusAssigned || a.Status == model.AssignmentStatusConfirmed
}

// validHours 工时在 [0, max] 之内
func validHours(h decimal.Decimal, max int) bool {
	return !h.IsNegative() && h.LessThanOrEqual(decimal.NewFromInt(int64(max)))
}

// clearApproval 撤销审批并清空审批人字段
func clearApproval(a *model.Assignment) {
	a.Approved = false
	a.ApprovedBy = nil
	a.ApprovedAt = nil
	a.ApprovalNotes = nil
}

// recordHours 写入新工时；original_hours_worked 只在第一次记录时写入
func recordHours(a *model.Assignment, hours decimal.Decimal, overtimeThreshold int) {
	if !a.OriginalHoursWorked.Valid {
		if a.HoursWorked.Valid {
			a.OriginalHoursWorked = a.HoursWorked
		} else {
			a.OriginalHoursWorked = decimal.NewNullDecimal(hours)
		}
	}
	a.HoursWorked = decimal.NewNullDecimal(hours)
	a.OvertimeHours = computeOvertime(hours, overtimeThreshold)
}

// resetHours 缺勤 / 移出活动时工时清零
func resetHours(a *model.Assignment) {
	a.HoursWorked = decimal.NewNullDecimal(decimal.Zero)
	a.OvertimeHours = decimal.Zero
}

// assignmentSnapshot 审计日志中的排班快照
func assignmentSnapshot(a *model.Assignment) map[string]any {
	snap := map[string]any{
		"assignment_id":  a.AssignmentID,
		"shift_id":       a.ShiftID,
		"worker_id":      a.WorkerID,
		"status":         a.Status,
		"hours_worked":   a.HoursWorked,
		"overtime_hours": a.OvertimeHours,
		"hourly_rate":    a.HourlyRate,
		"approved":       a.Approved,
		"approved_by":    a.ApprovedBy,
		"approved_at":    a.ApprovedAt,
	}
	if a.ClockInAt != nil {
		snap["clock_in_at"] = a.ClockInAt.UTC()
	}
	if a.ClockOutAt != nil {
		snap["clock_out_at"] = a.ClockOutAt.UTC()
	}
	if a.OriginalHoursWorked.Valid {
		snap["original_hours_worked"] = a.OriginalHoursWorked
	}
	return snap
}
