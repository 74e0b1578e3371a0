package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"social-catering/backend/config"
	"social-catering/backend/internal/model"
	"social-catering/backend/internal/repository"
	"social-catering/backend/pkg/metrics"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成导出文件失败")

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置下载响应头
//   - 工时表 (.xlsx)：每个排班一行（含已取消和缺勤，其工时与薪资计 0），末行合计与活动汇总一致
//   - 班次日历 (.ics)：每个班次一个 VEVENT，描述中列出有效排班的员工
type ExportService interface {
	ExportTimesheet(ctx context.Context, eventID string) (*bytes.Buffer, string, error)
	ExportCalendar(ctx context.Context, eventID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	*engineDeps
}

// NewExportService 创建 ExportService 实例
func NewExportService(engine config.EngineConfig, repo *repository.Repository, collector metrics.Collector, logger *zap.Logger) ExportService {
	return newExportService(newEngineDeps(engine, repo, collector, logger))
}

func newExportService(deps *engineDeps) *exportService {
	return &exportService{engineDeps: deps}
}

// loadEventRoster 读取活动、班次与全部排班
func (s *exportService) loadEventRoster(ctx context.Context, eventID string) (*model.Event, []model.Shift, []model.Assignment, error) {
	event, err := s.repo.Event.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, nil, notFound(err, ErrEventNotFound)
	}
	shifts, err := s.repo.Shift.ListByEvent(ctx, eventID)
	if err != nil {
		s.logger.Error("查询班次失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, nil, nil, err
	}
	assignments, err := s.repo.Assignment.ListByEvent(ctx, eventID)
	if err != nil {
		s.logger.Error("查询排班失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, nil, nil, err
	}
	return event, shifts, assignments, nil
}

// timesheetRow 工时表中的一行
type timesheetRow struct {
	shift      *model.Shift
	assignment *model.Assignment
	workerName string
	hours      decimal.Decimal
	overtime   decimal.Decimal
	rate       decimal.Decimal
	pay        decimal.Decimal
}

// buildTimesheetRows 按 班次开始时间 → 岗位 → 员工姓名 排序
func buildTimesheetRows(shifts []model.Shift, assignments []model.Assignment) []timesheetRow {
	shiftIndex := make(map[string]*model.Shift, len(shifts))
	for i := range shifts {
		shiftIndex[shifts[i].ShiftID] = &shifts[i]
	}

	rows := make([]timesheetRow, 0, len(assignments))
	for i := range assignments {
		a := &assignments[i]
		shift, ok := shiftIndex[a.ShiftID]
		if !ok {
			continue
		}
		row := timesheetRow{
			shift:      shift,
			assignment: a,
			workerName: a.WorkerID,
			rate:       effectiveRate(a, shift),
		}
		if a.Worker != nil {
			row.workerName = a.Worker.Name
		}
		if a.IsActive() {
			row.hours = effectiveHours(a)
			row.overtime = a.OvertimeHours
			row.pay = effectivePay(a, shift)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.shift.StartTimeUTC.Equal(b.shift.StartTimeUTC) {
			return a.shift.StartTimeUTC.Before(b.shift.StartTimeUTC)
		}
		if a.shift.RoleNeeded != b.shift.RoleNeeded {
			return a.shift.RoleNeeded < b.shift.RoleNeeded
		}
		if a.workerName != b.workerName {
			return a.workerName < b.workerName
		}
		return a.assignment.AssignmentID < b.assignment.AssignmentID
	})
	return rows
}

// ExportTimesheet 导出活动工时表为 Excel
//
// 表头：岗位 | 开始 | 结束 | 员工 | 状态 | 上班 | 下班 | 休息(分钟) | 工时 | 加班 | 费率 | 薪资 | 已审批
func (s *exportService) ExportTimesheet(ctx context.Context, eventID string) (*bytes.Buffer, string, error) {
	event, shifts, assignments, err := s.loadEventRoster(ctx, eventID)
	if err != nil {
		return nil, "", err
	}
	rows := buildTimesheetRows(shifts, assignments)

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "工时表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"岗位", "开始", "结束", "员工", "状态", "上班", "下班", "休息(分钟)", "工时", "加班", "费率", "薪资", "已审批"}
	f.SetColWidth(sheetName, "A", colName(len(headers)-1), 14)
	f.SetColWidth(sheetName, "B", "C", 20)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s 工时表", event.Title))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), headerStyle)

	// 数据行
	totalHours, totalPay := decimal.Zero, decimal.Zero
	for _, r := range rows {
		row++
		a := r.assignment
		values := []any{
			r.shift.RoleNeeded,
			formatTime(r.shift.StartTimeUTC),
			formatTime(r.shift.EndTimeUTC),
			r.workerName,
			a.Status,
			optionalTime(a.ClockInAt),
			optionalTime(a.ClockOutAt),
			a.BreakMinutes,
			r.hours.InexactFloat64(),
			r.overtime.InexactFloat64(),
			r.rate.InexactFloat64(),
			r.pay.InexactFloat64(),
			yesNo(a.Approved),
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		totalHours = totalHours.Add(r.hours)
		totalPay = totalPay.Add(r.pay)
	}

	// 合计行
	row++
	f.SetCellValue(sheetName, cell("A", row), "合计")
	f.SetCellValue(sheetName, cell(colName(8), row), totalHours.Round(2).InexactFloat64())
	f.SetCellValue(sheetName, cell(colName(11), row), totalPay.Round(2).InexactFloat64())

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, fmt.Sprintf("工时表_%s.xlsx", event.Title), nil
}

// ExportCalendar 导出活动班次日历（iCalendar）
// UID 取班次 ID，重复导入日历客户端时覆盖而不是新增
func (s *exportService) ExportCalendar(ctx context.Context, eventID string) (*bytes.Buffer, string, error) {
	event, shifts, assignments, err := s.loadEventRoster(ctx, eventID)
	if err != nil {
		return nil, "", err
	}

	roster := make(map[string][]string, len(shifts))
	for _, r := range buildTimesheetRows(shifts, assignments) {
		if r.assignment.IsActive() {
			roster[r.shift.ShiftID] = append(roster[r.shift.ShiftID], r.workerName)
		}
	}

	stamp := s.now()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//social-catering//shift-engine//ZH")
	cal.SetXWRCalName(event.Title)

	for i := range shifts {
		shift := &shifts[i]
		workers := roster[shift.ShiftID]

		ev := cal.AddEvent(shift.ShiftID + "@social-catering")
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(shift.StartTimeUTC)
		ev.SetEndAt(shift.EndTimeUTC)
		ev.SetSummary(fmt.Sprintf("%s · %s", event.Title, shift.RoleNeeded))
		ev.SetDescription(shiftDescription(shift, workers))
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, fmt.Sprintf("班次日历_%s.ics", event.Title), nil
}

func shiftDescription(shift *model.Shift, workers []string) string {
	lines := []string{fmt.Sprintf("岗位: %s", shift.RoleNeeded), fmt.Sprintf("名额: %d/%d", len(workers), shift.Capacity)}
	if shift.PayRate.Valid {
		lines = append(lines, fmt.Sprintf("费率: %s", shift.PayRate.Decimal.StringFixed(2)))
	}
	if len(workers) > 0 {
		lines = append(lines, "员工: "+strings.Join(workers, "、"))
	}
	return strings.Join(lines, "\n")
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}
