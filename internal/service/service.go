package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"social-catering/backend/config"
	"social-catering/backend/internal/repository"
	pkgerrors "social-catering/backend/pkg/errors"
	"social-catering/backend/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Assignment AssignmentService
	Event      EventService
	Export     ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	collector metrics.Collector,
	logger *zap.Logger,
) *Service {
	return &Service{
		Assignment: NewAssignmentService(cfg.Engine, repo, collector, logger),
		Event:      NewEventService(cfg.Engine, repo, collector, logger),
		Export:     NewExportService(cfg.Engine, repo, collector, logger),
	}
}

// engineDeps 排班引擎各服务共享的依赖
type engineDeps struct {
	repo    *repository.Repository
	engine  config.EngineConfig
	metrics metrics.Collector
	logger  *zap.Logger
	recalc  *recalculator
	audit   AuditSinkFactory
	now     func() time.Time
}

func newEngineDeps(engine config.EngineConfig, repo *repository.Repository, collector metrics.Collector, logger *zap.Logger) *engineDeps {
	if collector == nil {
		collector = metrics.NewNop()
	}
	return &engineDeps{
		repo:    repo,
		engine:  engine,
		metrics: collector,
		logger:  logger,
		recalc:  newRecalculator(collector, logger),
		audit:   DefaultAuditSinkFactory,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// runInTx 在单个事务内执行一次变更：重新校验 → 写入 → 重算 → 审计 → 提交。
// 超时映射为可重试错误；并发类错误计入指标。
func (d *engineDeps) runInTx(ctx context.Context, op string, fn func(ctx context.Context, txRepo *repository.Repository) error) error {
	if d.engine.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.engine.TxTimeout)
		defer cancel()
	}

	err := d.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		return fn(ctx, txRepo)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !pkgerrors.IsRetryable(err) {
		err = fmt.Errorf("%w: %w", pkgerrors.ErrRetryable, err)
	}
	if pkgerrors.IsConcurrency(err) {
		d.metrics.RecordConcurrencyConflict(op)
		d.logger.Warn("并发冲突，事务已回滚", zap.String("op", op), zap.Error(err))
	}
	return err
}
