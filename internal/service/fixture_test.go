package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"social-catering/backend/config"
	"social-catering/backend/internal/dto"
	"social-catering/backend/internal/model"
)

// ── 测试辅助 ──

const testActor = "00000000-0000-0000-0000-0000000000aa"

var testEngine = config.EngineConfig{
	OvertimeThresholdHours: 8,
	DefaultShiftCapacity:   1,
	MaxHoursPerAssignment:  24,
}

// 活动时间：2026-05-01 18:00–23:00 UTC
var (
	eventStart = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	eventEnd   = time.Date(2026, 5, 1, 23, 0, 0, 0, time.UTC)
)

// recordingMetrics 记录调用次数的指标采集器
type recordingMetrics struct {
	attempts  map[string]int
	failures  map[string]int
	conflicts map[string]int
	cascades  []int
	generated int
	recalcs   int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		attempts:  make(map[string]int),
		failures:  make(map[string]int),
		conflicts: make(map[string]int),
	}
}

func (m *recordingMetrics) RecordAssignAttempt(outcome string)    { m.attempts[outcome]++ }
func (m *recordingMetrics) RecordValidationFailure(reason string) { m.failures[reason]++ }
func (m *recordingMetrics) RecordConcurrencyConflict(op string)   { m.conflicts[op]++ }
func (m *recordingMetrics) ObserveRecalculation(float64)          { m.recalcs++ }
func (m *recordingMetrics) RecordCascade(n int)                   { m.cascades = append(m.cascades, n) }
func (m *recordingMetrics) RecordShiftsGenerated(n int)           { m.generated += n }

type testFixture struct {
	store       *memStore
	metrics     *recordingMetrics
	now         time.Time
	assignments *assignmentService
	events      *eventService
	exports     *exportService
}

// newTestFixture 默认当前时间为活动结束后一小时
func newTestFixture() *testFixture {
	f := &testFixture{
		store:   newMemStore(),
		metrics: newRecordingMetrics(),
		now:     eventEnd.Add(time.Hour),
	}
	deps := newEngineDeps(testEngine, f.store.repo(), f.metrics, zap.NewNop())
	deps.now = func() time.Time { return f.now }
	f.assignments = newAssignmentService(deps)
	f.events = newEventService(deps)
	f.exports = newExportService(deps)
	return f
}

// seedEvent 创建草稿活动、时间表与技能需求
func (f *testFixture) seedEvent(t *testing.T, title string, reqs ...model.EventSkillRequirement) *model.Event {
	t.Helper()
	ctx := context.Background()
	repo := f.store.repo()

	event := &model.Event{Title: title, Status: model.EventStatusDraft}
	if err := repo.Event.Create(ctx, event); err != nil {
		t.Fatalf("创建活动失败: %v", err)
	}
	schedule := &model.EventSchedule{EventID: event.EventID, StartTimeUTC: eventStart, EndTimeUTC: eventEnd}
	if err := repo.EventSchedule.Create(ctx, schedule); err != nil {
		t.Fatalf("创建时间表失败: %v", err)
	}
	for i := range reqs {
		reqs[i].EventID = event.EventID
		if err := repo.SkillRequirement.Create(ctx, &reqs[i]); err != nil {
			t.Fatalf("创建技能需求失败: %v", err)
		}
	}
	return event
}

func serverRequirement(needed int, rate string) model.EventSkillRequirement {
	return model.EventSkillRequirement{SkillName: "Server", NeededWorkers: needed, PayRate: decimal.RequireFromString(rate)}
}

func (f *testFixture) addWorker(t *testing.T, name string, skills ...string) *model.Worker {
	t.Helper()
	w := &model.Worker{Name: name, Active: true, Skills: model.NewSkillSet(skills...)}
	if err := f.store.repo().Worker.Create(context.Background(), w); err != nil {
		t.Fatalf("创建员工失败: %v", err)
	}
	return w
}

// publish 发布活动并返回生成的班次
func (f *testFixture) publish(t *testing.T, eventID string) []dto.ShiftResponse {
	t.Helper()
	resp, err := f.events.PublishEvent(context.Background(), eventID, testActor)
	if err != nil {
		t.Fatalf("PublishEvent 应成功: %v", err)
	}
	return resp.Shifts
}

// assign 派工并要求成功
func (f *testFixture) assign(t *testing.T, shiftID, workerID string) *dto.AssignmentResponse {
	t.Helper()
	result, err := f.assignments.TryAssignWorker(context.Background(), shiftID, &dto.AssignWorkerRequest{WorkerID: workerID}, testActor)
	if err != nil {
		t.Fatalf("TryAssignWorker 应成功: %v", err)
	}
	if !result.Assigned {
		t.Fatalf("期望派工成功，实际失败原因: %+v", result.Failures)
	}
	return result.Assignment
}

// workShift 上班打卡后下班打卡
func (f *testFixture) workShift(t *testing.T, assignmentID string, in, out time.Time) *dto.AssignmentResponse {
	t.Helper()
	ctx := context.Background()
	if _, err := f.assignments.ClockIn(ctx, assignmentID, &dto.ClockInRequest{At: &in}, testActor); err != nil {
		t.Fatalf("ClockIn 应成功: %v", err)
	}
	resp, err := f.assignments.ClockOut(ctx, assignmentID, &dto.ClockOutRequest{At: &out}, testActor)
	if err != nil {
		t.Fatalf("ClockOut 应成功: %v", err)
	}
	return resp
}

func (f *testFixture) event(id string) *model.Event {
	return f.store.events[id]
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
