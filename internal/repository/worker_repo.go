package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"social-catering/backend/internal/model"
)

// WorkerRepository 员工数据访问接口
// 员工与证书的增删改属于外部 CRUD 服务，这里只保留排班引擎需要的读取
type WorkerRepository interface {
	Create(ctx context.Context, w *model.Worker) error
	GetByID(ctx context.Context, id string) (*model.Worker, error)
	// GetForUpdate 锁定员工行（含证书），串行化同一员工的并发派工
	GetForUpdate(ctx context.Context, id string) (*model.Worker, error)
}

// ── Worker Repository 实现 ──

type workerRepo struct {
	db *gorm.DB
}

func NewWorkerRepo(db *gorm.DB) WorkerRepository {
	return &workerRepo{db: db}
}

func (r *workerRepo) Create(ctx context.Context, w *model.Worker) error {
	return TranslateError(r.db.WithContext(ctx).Create(w).Error)
}

func (r *workerRepo) GetByID(ctx context.Context, id string) (*model.Worker, error) {
	var w model.Worker
	err := r.db.WithContext(ctx).
		Preload("Certifications").
		Where("worker_id = ?", id).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *workerRepo) GetForUpdate(ctx context.Context, id string) (*model.Worker, error) {
	var w model.Worker
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("worker_id = ?", id).
		First(&w).Error
	if err != nil {
		return nil, TranslateError(err)
	}

	var certs []model.WorkerCertification
	if err := r.db.WithContext(ctx).
		Where("worker_id = ?", id).
		Find(&certs).Error; err != nil {
		return nil, err
	}
	w.Certifications = certs
	return &w, nil
}
