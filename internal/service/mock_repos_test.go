package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"social-catering/backend/internal/model"
	"social-catering/backend/internal/repository"
	pkgerrors "social-catering/backend/pkg/errors"
)

// ── 内存存储 ──
// 所有 mock repository 共享同一份数据，模拟同一数据库中的多张表。
// 读取返回副本，避免服务层修改未写回的数据污染存储。

type memStore struct {
	events      map[string]*model.Event
	schedules   map[string]*model.EventSchedule // key: event_id
	reqs        map[string]*model.EventSkillRequirement
	shifts      map[string]*model.Shift
	assignments map[string]*model.Assignment
	workers     map[string]*model.Worker
	logs        []model.ActivityLog

	// 故障注入
	failAggregates error
	failCascade    error
}

func newMemStore() *memStore {
	return &memStore{
		events:      make(map[string]*model.Event),
		schedules:   make(map[string]*model.EventSchedule),
		reqs:        make(map[string]*model.EventSkillRequirement),
		shifts:      make(map[string]*model.Shift),
		assignments: make(map[string]*model.Assignment),
		workers:     make(map[string]*model.Worker),
	}
}

// repo 基于内存存储构建 Repository 聚合（无 db，Transaction 直接执行）
func (s *memStore) repo() *repository.Repository {
	return &repository.Repository{
		Event:            &mockEventRepo{s},
		EventSchedule:    &mockScheduleRepo{s},
		SkillRequirement: &mockSkillRequirementRepo{s},
		Shift:            &mockShiftRepo{s},
		Assignment:       &mockAssignmentRepo{s},
		Worker:           &mockWorkerRepo{s},
		ActivityLog:      &mockActivityLogRepo{s},
	}
}

func (s *memStore) shiftCopy(id string) *model.Shift {
	shift, ok := s.shifts[id]
	if !ok {
		return nil
	}
	cp := *shift
	if cp.EventSkillRequirementID != nil {
		if req, ok := s.reqs[*cp.EventSkillRequirementID]; ok {
			reqCp := *req
			cp.SkillRequirement = &reqCp
		}
	}
	return &cp
}

func (s *memStore) workerCopy(id string) *model.Worker {
	w, ok := s.workers[id]
	if !ok {
		return nil
	}
	cp := *w
	cp.Skills = append(model.SkillSet(nil), w.Skills...)
	cp.Certifications = append([]model.WorkerCertification(nil), w.Certifications...)
	return &cp
}

// logsByAction 按动作筛选审计日志
func (s *memStore) logsByAction(action string) []model.ActivityLog {
	var result []model.ActivityLog
	for _, l := range s.logs {
		if l.Action == action {
			result = append(result, l)
		}
	}
	return result
}

// ── Mock EventRepository ──

type mockEventRepo struct{ s *memStore }

func (m *mockEventRepo) Create(_ context.Context, event *model.Event) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.Version == 0 {
		event.Version = 1
	}
	cp := *event
	m.s.events[event.EventID] = &cp
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	e, ok := m.s.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	if sc, ok := m.s.schedules[id]; ok {
		scCp := *sc
		cp.Schedule = &scCp
	}
	reqs, _ := (&mockSkillRequirementRepo{m.s}).ListByEvent(context.Background(), id)
	cp.SkillRequirements = reqs
	return &cp, nil
}

func (m *mockEventRepo) GetForUpdate(_ context.Context, id string) (*model.Event, error) {
	e, ok := m.s.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockEventRepo) Update(_ context.Context, event *model.Event) error {
	stored, ok := m.s.events[event.EventID]
	if !ok || stored.Version != event.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Title = event.Title
	stored.Status = event.Status
	stored.ShiftsGenerated = event.ShiftsGenerated
	stored.TotalShiftsCount = event.TotalShiftsCount
	stored.PublishedAt = event.PublishedAt
	stored.UpdatedBy = event.UpdatedBy
	stored.Version++
	event.Version = stored.Version
	return nil
}

func (m *mockEventRepo) UpdateAggregates(_ context.Context, eventID string, agg repository.EventAggregates) error {
	if m.s.failAggregates != nil {
		return m.s.failAggregates
	}
	stored, ok := m.s.events[eventID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = agg.Status
	stored.TotalWorkersNeeded = agg.TotalWorkersNeeded
	stored.AssignedWorkersCount = agg.AssignedWorkersCount
	stored.TotalShiftsCount = agg.TotalShiftsCount
	stored.AssignedShiftsCount = agg.AssignedShiftsCount
	stored.TotalHoursWorked = agg.TotalHoursWorked
	stored.TotalPayAmount = agg.TotalPayAmount
	return nil
}

// ── Mock EventScheduleRepository ──

type mockScheduleRepo struct{ s *memStore }

func (m *mockScheduleRepo) Create(_ context.Context, schedule *model.EventSchedule) error {
	if schedule.EventScheduleID == "" {
		schedule.EventScheduleID = uuid.New().String()
	}
	cp := *schedule
	m.s.schedules[schedule.EventID] = &cp
	return nil
}

func (m *mockScheduleRepo) GetByEvent(_ context.Context, eventID string) (*model.EventSchedule, error) {
	sc, ok := m.s.schedules[eventID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *sc
	return &cp, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, schedule *model.EventSchedule) error {
	cp := *schedule
	m.s.schedules[schedule.EventID] = &cp
	return nil
}

// ── Mock SkillRequirementRepository ──

type mockSkillRequirementRepo struct{ s *memStore }

func (m *mockSkillRequirementRepo) Create(_ context.Context, req *model.EventSkillRequirement) error {
	if req.EventSkillRequirementID == "" {
		req.EventSkillRequirementID = uuid.New().String()
	}
	cp := *req
	m.s.reqs[req.EventSkillRequirementID] = &cp
	return nil
}

func (m *mockSkillRequirementRepo) GetByID(_ context.Context, id string) (*model.EventSkillRequirement, error) {
	req, ok := m.s.reqs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *req
	return &cp, nil
}

func (m *mockSkillRequirementRepo) GetForUpdate(ctx context.Context, id string) (*model.EventSkillRequirement, error) {
	return m.GetByID(ctx, id)
}

func (m *mockSkillRequirementRepo) ListByEvent(_ context.Context, eventID string) ([]model.EventSkillRequirement, error) {
	var result []model.EventSkillRequirement
	for _, req := range m.s.reqs {
		if req.EventID == eventID {
			result = append(result, *req)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SkillName < result[j].SkillName })
	return result, nil
}

func (m *mockSkillRequirementRepo) UpdatePayRate(_ context.Context, id string, rate decimal.Decimal, updatedBy *string) error {
	req, ok := m.s.reqs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	req.PayRate = rate
	req.UpdatedBy = updatedBy
	return nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct{ s *memStore }

func (m *mockShiftRepo) BatchCreate(_ context.Context, shifts []model.Shift) error {
	for i := range shifts {
		if shifts[i].ShiftID == "" {
			shifts[i].ShiftID = uuid.New().String()
		}
		cp := shifts[i]
		cp.SkillRequirement = nil
		m.s.shifts[cp.ShiftID] = &cp
	}
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if shift := m.s.shiftCopy(id); shift != nil {
		return shift, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) GetForUpdate(_ context.Context, id string) (*model.Shift, error) {
	shift := m.s.shiftCopy(id)
	if shift == nil {
		return nil, gorm.ErrRecordNotFound
	}
	shift.SkillRequirement = nil
	return shift, nil
}

func (m *mockShiftRepo) ListByEvent(_ context.Context, eventID string) ([]model.Shift, error) {
	var result []model.Shift
	for id, shift := range m.s.shifts {
		if shift.EventID == eventID {
			result = append(result, *m.s.shiftCopy(id))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTimeUTC.Equal(result[j].StartTimeUTC) {
			return result[i].StartTimeUTC.Before(result[j].StartTimeUTC)
		}
		if result[i].RoleNeeded != result[j].RoleNeeded {
			return result[i].RoleNeeded < result[j].RoleNeeded
		}
		return result[i].ShiftID < result[j].ShiftID
	})
	return result, nil
}

func (m *mockShiftRepo) CountByEvent(ctx context.Context, eventID string) (int64, error) {
	shifts, _ := m.ListByEvent(ctx, eventID)
	return int64(len(shifts)), nil
}

func (m *mockShiftRepo) UpdateTimesByEvent(_ context.Context, eventID string, start, end time.Time, updatedBy *string) (int64, error) {
	var n int64
	for _, shift := range m.s.shifts {
		if shift.EventID == eventID {
			shift.StartTimeUTC, shift.EndTimeUTC = start, end
			shift.UpdatedBy = updatedBy
			n++
		}
	}
	return n, nil
}

func (m *mockShiftRepo) CascadePayRate(_ context.Context, c repository.PayRateCascade) (int64, error) {
	if m.s.failCascade != nil {
		return 0, m.s.failCascade
	}
	var n int64
	for _, shift := range m.s.shifts {
		if shift.EventID != c.EventID {
			continue
		}
		linked := shift.EventSkillRequirementID != nil && *shift.EventSkillRequirementID == c.RequirementID
		byRole := shift.EventSkillRequirementID == nil && shift.RoleNeeded == c.SkillName
		if !linked && !byRole {
			continue
		}
		tracking := (!shift.PayRate.Valid && shift.AutoGenerated) ||
			(shift.PayRate.Valid && shift.PayRate.Decimal.Equal(c.OldRate))
		if !tracking {
			continue
		}
		shift.PayRate = decimal.NewNullDecimal(c.NewRate)
		shift.UpdatedBy = c.UpdatedBy
		n++
	}
	return n, nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct{ s *memStore }

func (m *mockAssignmentRepo) Create(_ context.Context, a *model.Assignment) error {
	if a.AssignmentID == "" {
		a.AssignmentID = uuid.New().String()
	}
	// 模拟部分唯一索引
	for _, existing := range m.s.assignments {
		if existing.IsActive() && existing.ShiftID == a.ShiftID && existing.WorkerID == a.WorkerID {
			return fmt.Errorf("%w: uq_assignments_active_worker_shift", pkgerrors.ErrConcurrencyConflict)
		}
	}
	cp := *a
	cp.Shift, cp.Worker = nil, nil
	m.s.assignments[a.AssignmentID] = &cp
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	a, ok := m.s.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	cp.Shift = m.s.shiftCopy(a.ShiftID)
	cp.Worker = m.s.workerCopy(a.WorkerID)
	return &cp, nil
}

func (m *mockAssignmentRepo) GetForUpdate(_ context.Context, id string) (*model.Assignment, error) {
	a, ok := m.s.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAssignmentRepo) CountActiveByShift(_ context.Context, shiftID, excludeID string) (int64, error) {
	var n int64
	for _, a := range m.s.assignments {
		if a.ShiftID == shiftID && a.IsActive() && a.AssignmentID != excludeID {
			n++
		}
	}
	return n, nil
}

func (m *mockAssignmentRepo) ListActiveByWorkerOverlapping(_ context.Context, workerID string, start, end time.Time, excludeID string) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.s.assignments {
		if a.WorkerID != workerID || !a.IsActive() || a.AssignmentID == excludeID {
			continue
		}
		shift := m.s.shiftCopy(a.ShiftID)
		if shift == nil || !shift.StartTimeUTC.Before(end) || !shift.EndTimeUTC.After(start) {
			continue
		}
		cp := *a
		cp.Shift = shift
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListActiveByEvent(_ context.Context, eventID string) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.s.assignments {
		shift, ok := m.s.shifts[a.ShiftID]
		if !ok || shift.EventID != eventID || !a.IsActive() {
			continue
		}
		result = append(result, *a)
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListByEvent(_ context.Context, eventID string) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.s.assignments {
		shift, ok := m.s.shifts[a.ShiftID]
		if !ok || shift.EventID != eventID {
			continue
		}
		cp := *a
		cp.Worker = m.s.workerCopy(a.WorkerID)
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockAssignmentRepo) Update(_ context.Context, a *model.Assignment) error {
	if _, ok := m.s.assignments[a.AssignmentID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *a
	cp.Shift, cp.Worker = nil, nil
	m.s.assignments[a.AssignmentID] = &cp
	return nil
}

func (m *mockAssignmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.s.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.s.assignments, id)
	return nil
}

// ── Mock WorkerRepository ──

type mockWorkerRepo struct{ s *memStore }

func (m *mockWorkerRepo) Create(_ context.Context, w *model.Worker) error {
	if w.WorkerID == "" {
		w.WorkerID = uuid.New().String()
	}
	cp := *w
	m.s.workers[w.WorkerID] = &cp
	return nil
}

func (m *mockWorkerRepo) GetByID(_ context.Context, id string) (*model.Worker, error) {
	if w := m.s.workerCopy(id); w != nil {
		return w, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkerRepo) GetForUpdate(ctx context.Context, id string) (*model.Worker, error) {
	return m.GetByID(ctx, id)
}

// ── Mock ActivityLogRepository ──

type mockActivityLogRepo struct{ s *memStore }

func (m *mockActivityLogRepo) Create(_ context.Context, log *model.ActivityLog) error {
	if log.ActivityLogID == "" {
		log.ActivityLogID = uuid.New().String()
	}
	log.CreatedAt = time.Now().UTC()
	m.s.logs = append(m.s.logs, *log)
	return nil
}

func (m *mockActivityLogRepo) ListByEvent(_ context.Context, eventID string, offset, limit int) ([]model.ActivityLog, int64, error) {
	var matched []model.ActivityLog
	for i := len(m.s.logs) - 1; i >= 0; i-- {
		l := m.s.logs[i]
		if l.EventID != nil && *l.EventID == eventID {
			matched = append(matched, l)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}
