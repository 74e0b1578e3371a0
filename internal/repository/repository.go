package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Event            EventRepository
	EventSchedule    EventScheduleRepository
	SkillRequirement SkillRequirementRepository
	Shift            ShiftRepository
	Assignment       AssignmentRepository
	Worker           WorkerRepository
	ActivityLog      ActivityLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:               db,
		Event:            NewEventRepo(db),
		EventSchedule:    NewEventScheduleRepo(db),
		SkillRequirement: NewSkillRequirementRepo(db),
		Shift:            NewShiftRepo(db),
		Assignment:       NewAssignmentRepo(db),
		Worker:           NewWorkerRepo(db),
		ActivityLog:      NewActivityLogRepo(db),
	}
}

// BeginTx 开启事务；db 为空（单元测试注入的 mock 聚合）时返回 nil
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, TranslateError(tx.Error)
	}
	return tx, nil
}

// WithTx 基于事务连接构建新的 Repository 聚合；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Transaction 在单个事务内执行 fn：fn 返回错误或 panic 时整体回滚。
// 提交阶段的序列化失败、死锁同样经 TranslateError 归类。
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) (err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	if tx == nil {
		return fn(r)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(r.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err = tx.Commit().Error; err != nil {
		return TranslateError(err)
	}
	return nil
}
