//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"social-catering/backend/pkg/database"
	pkgerrors "social-catering/backend/pkg/errors"

	"social-catering/backend/internal/model"
	"social-catering/backend/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=catering password=catering_password dbname=catering_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用正式迁移建表：部分唯一索引与容量触发器必须与线上一致
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "执行迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

type fixture struct {
	event   *model.Event
	req     *model.EventSkillRequirement
	shift   *model.Shift
	workers []*model.Worker
}

// setupTestData 创建活动、技能需求、一个班次与若干员工，并返回清理函数
func setupTestData(t *testing.T, capacity, workerCount int) (*fixture, func()) {
	t.Helper()
	ctx := context.Background()
	start := time.Date(2026, 6, 1, 16, 0, 0, 0, time.UTC)

	f := &fixture{}
	f.event = &model.Event{Title: fmt.Sprintf("测试活动-%d", time.Now().UnixNano()), Status: model.EventStatusPublished}
	if err := testDB.WithContext(ctx).Create(f.event).Error; err != nil {
		t.Fatalf("创建活动失败: %v", err)
	}

	f.req = &model.EventSkillRequirement{
		EventID:       f.event.EventID,
		SkillName:     "Server",
		NeededWorkers: 1,
		PayRate:       decimal.RequireFromString("18.00"),
	}
	if err := testDB.WithContext(ctx).Create(f.req).Error; err != nil {
		t.Fatalf("创建技能需求失败: %v", err)
	}

	f.shift = &model.Shift{
		EventID:                 f.event.EventID,
		EventSkillRequirementID: &f.req.EventSkillRequirementID,
		RoleNeeded:              "Server",
		StartTimeUTC:            start,
		EndTimeUTC:              start.Add(4 * time.Hour),
		Capacity:                capacity,
		PayRate:                 decimal.NewNullDecimal(f.req.PayRate),
		AutoGenerated:           true,
	}
	if err := testDB.WithContext(ctx).Omit("SkillRequirement", "Event").Create(f.shift).Error; err != nil {
		t.Fatalf("创建班次失败: %v", err)
	}

	for i := 0; i < workerCount; i++ {
		w := &model.Worker{Name: fmt.Sprintf("员工%d", i), Active: true, Skills: model.NewSkillSet("Server")}
		if err := testDB.WithContext(ctx).Create(w).Error; err != nil {
			t.Fatalf("创建员工失败: %v", err)
		}
		f.workers = append(f.workers, w)
	}

	cleanup := func() {
		testDB.Exec("DELETE FROM activity_logs WHERE event_id = ?", f.event.EventID)
		testDB.Exec("DELETE FROM events WHERE event_id = ?", f.event.EventID)
		for _, w := range f.workers {
			testDB.Exec("DELETE FROM workers WHERE worker_id = ?", w.WorkerID)
		}
	}
	return f, cleanup
}

func newAssignment(shiftID, workerID string) *model.Assignment {
	return &model.Assignment{ShiftID: shiftID, WorkerID: workerID, Status: model.AssignmentStatusAssigned}
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction Rollback / Commit
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	f, cleanup := setupTestData(t, 1, 1)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	var created *model.Assignment
	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		created = newAssignment(f.shift.ShiftID, f.workers[0].WorkerID)
		if err := txRepo.Assignment.Create(ctx, created); err != nil {
			return err
		}
		return errors.New("模拟重算失败")
	})
	if err == nil {
		t.Fatal("期望事务返回错误")
	}

	if _, err := repo.Assignment.GetByID(ctx, created.AssignmentID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("期望回滚后查不到排班，实际: %v", err)
	}
}

func TestTransaction_Commit(t *testing.T) {
	f, cleanup := setupTestData(t, 1, 1)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	a := newAssignment(f.shift.ShiftID, f.workers[0].WorkerID)
	if err := txRepo.Assignment.Create(ctx, a); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建排班失败: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("Commit 失败: %v", err)
	}

	found, err := repo.Assignment.GetByID(ctx, a.AssignmentID)
	if err != nil {
		t.Fatalf("提交后查询排班失败: %v", err)
	}
	if found.Shift == nil || found.Shift.SkillRequirement == nil {
		t.Error("期望预加载班次与技能需求")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_Event_ConflictDetected(t *testing.T) {
	f, cleanup := setupTestData(t, 1, 0)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	copy1, _ := repo.Event.GetByID(ctx, f.event.EventID)
	copy2, _ := repo.Event.GetByID(ctx, f.event.EventID)

	copy1.Title = "改名一"
	if err := repo.Event.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	copy2.Title = "改名二"
	if err := repo.Event.Update(ctx, copy2); err != pkgerrors.ErrOptimisticLock {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}
}

func TestUpdateAggregates_DoesNotBumpVersion(t *testing.T) {
	f, cleanup := setupTestData(t, 1, 0)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	err := repo.Event.UpdateAggregates(ctx, f.event.EventID, repository.EventAggregates{
		Status:           model.EventStatusPublished,
		TotalShiftsCount: 1,
		TotalHoursWorked: decimal.RequireFromString("3.50"),
		TotalPayAmount:   decimal.RequireFromString("63.00"),
	})
	if err != nil {
		t.Fatalf("UpdateAggregates 失败: %v", err)
	}

	got, _ := repo.Event.GetByID(ctx, f.event.EventID)
	if got.Version != f.event.Version {
		t.Errorf("汇总写入不应递增 version: %d → %d", f.event.Version, got.Version)
	}
	if !got.TotalPayAmount.Equal(decimal.RequireFromString("63")) {
		t.Errorf("期望 total_pay_amount=63.00，实际=%s", got.TotalPayAmount)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Storage-level backstops
// ═══════════════════════════════════════════════════════════

func TestActiveAssignmentUniqueIndex(t *testing.T) {
	f, cleanup := setupTestData(t, 3, 1)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	workerID := f.workers[0].WorkerID

	first := newAssignment(f.shift.ShiftID, workerID)
	if err := repo.Assignment.Create(ctx, first); err != nil {
		t.Fatalf("创建排班失败: %v", err)
	}

	err := repo.Assignment.Create(ctx, newAssignment(f.shift.ShiftID, workerID))
	if !errors.Is(err, pkgerrors.ErrConcurrencyConflict) {
		t.Fatalf("期望重复有效排班被唯一索引拒绝，实际: %v", err)
	}

	// 取消后历史行可与新的有效排班共存
	first.Status = model.AssignmentStatusCancelled
	if err := repo.Assignment.Update(ctx, first); err != nil {
		t.Fatalf("取消排班失败: %v", err)
	}
	if err := repo.Assignment.Create(ctx, newAssignment(f.shift.ShiftID, workerID)); err != nil {
		t.Fatalf("取消后重新排班应成功: %v", err)
	}
}

func TestCapacityTrigger_RejectsOverbooking(t *testing.T) {
	f, cleanup := setupTestData(t, 1, 2)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.Assignment.Create(ctx, newAssignment(f.shift.ShiftID, f.workers[0].WorkerID)); err != nil {
		t.Fatalf("第一条排班应成功: %v", err)
	}
	err := repo.Assignment.Create(ctx, newAssignment(f.shift.ShiftID, f.workers[1].WorkerID))
	if !errors.Is(err, pkgerrors.ErrConcurrencyConflict) {
		t.Fatalf("期望容量触发器拒绝，实际: %v", err)
	}
}

func TestCapacityTrigger_ConcurrentInserts(t *testing.T) {
	const workers = 5
	f, cleanup := setupTestData(t, 1, workers)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID string) {
			defer wg.Done()
			err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
				return txRepo.Assignment.Create(ctx, newAssignment(f.shift.ShiftID, workerID))
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, pkgerrors.ErrConcurrencyConflict):
				conflicts++
			default:
				t.Errorf("非预期错误: %v", err)
			}
		}(f.workers[i].WorkerID)
	}
	wg.Wait()

	if succeeded != 1 || conflicts != workers-1 {
		t.Errorf("期望 1 成功 %d 冲突，实际 %d 成功 %d 冲突", workers-1, succeeded, conflicts)
	}
	count, _ := repo.Assignment.CountActiveByShift(ctx, f.shift.ShiftID, "")
	if count != 1 {
		t.Errorf("有效排班数应为 1，实际 %d", count)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Queries
// ═══════════════════════════════════════════════════════════

func TestListActiveByWorkerOverlapping(t *testing.T) {
	f, cleanup := setupTestData(t, 1, 1)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	workerID := f.workers[0].WorkerID

	a := newAssignment(f.shift.ShiftID, workerID)
	if err := repo.Assignment.Create(ctx, a); err != nil {
		t.Fatalf("创建排班失败: %v", err)
	}

	// 首尾相接不算重叠
	list, err := repo.Assignment.ListActiveByWorkerOverlapping(ctx, workerID, f.shift.EndTimeUTC, f.shift.EndTimeUTC.Add(2*time.Hour), "")
	if err != nil || len(list) != 0 {
		t.Fatalf("相邻时段不应重叠: %v, %d", err, len(list))
	}

	list, _ = repo.Assignment.ListActiveByWorkerOverlapping(ctx, workerID, f.shift.StartTimeUTC.Add(time.Hour), f.shift.EndTimeUTC.Add(time.Hour), "")
	if len(list) != 1 || list[0].Shift == nil {
		t.Fatalf("期望命中 1 条重叠排班并预加载班次，实际 %d", len(list))
	}

	list, _ = repo.Assignment.ListActiveByWorkerOverlapping(ctx, workerID, f.shift.StartTimeUTC, f.shift.EndTimeUTC, a.AssignmentID)
	if len(list) != 0 {
		t.Errorf("排除自身后不应有重叠，实际 %d", len(list))
	}
}

func TestCascadePayRate_Eligibility(t *testing.T) {
	f, cleanup := setupTestData(t, 1, 0)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	start := f.shift.StartTimeUTC

	overridden := model.Shift{
		EventID: f.event.EventID, EventSkillRequirementID: &f.req.EventSkillRequirementID,
		RoleNeeded: "Server", StartTimeUTC: start, EndTimeUTC: start.Add(time.Hour), Capacity: 1,
		PayRate: decimal.NewNullDecimal(decimal.RequireFromString("25.00")), AutoGenerated: true,
	}
	manualUnlinked := model.Shift{
		EventID: f.event.EventID, RoleNeeded: "Server", StartTimeUTC: start, EndTimeUTC: start.Add(time.Hour),
		Capacity: 1, PayRate: decimal.NewNullDecimal(decimal.RequireFromString("18.00")),
	}
	nullManual := model.Shift{
		EventID: f.event.EventID, EventSkillRequirementID: &f.req.EventSkillRequirementID,
		RoleNeeded: "Server", StartTimeUTC: start, EndTimeUTC: start.Add(time.Hour), Capacity: 1,
	}
	if err := repo.Shift.BatchCreate(ctx, []model.Shift{overridden, manualUnlinked, nullManual}); err != nil {
		t.Fatalf("创建班次失败: %v", err)
	}

	n, err := repo.Shift.CascadePayRate(ctx, repository.PayRateCascade{
		EventID:       f.event.EventID,
		RequirementID: f.req.EventSkillRequirementID,
		SkillName:     "Server",
		OldRate:       decimal.RequireFromString("18.00"),
		NewRate:       decimal.RequireFromString("20.00"),
	})
	if err != nil {
		t.Fatalf("CascadePayRate 失败: %v", err)
	}
	// 自动生成的 18.00 班次 + 未关联但费率等于旧值的手工班次
	if n != 2 {
		t.Errorf("期望更新 2 个班次，实际 %d", n)
	}

	shifts, _ := repo.Shift.ListByEvent(ctx, f.event.EventID)
	for _, s := range shifts {
		switch {
		case s.PayRate.Valid && s.PayRate.Decimal.Equal(decimal.RequireFromString("25")):
		case !s.PayRate.Valid:
		default:
			if !s.PayRate.Decimal.Equal(decimal.RequireFromString("20")) {
				t.Errorf("班次 %s 费率应为 20.00，实际 %s", s.ShiftID, s.PayRate.Decimal)
			}
		}
	}
}
