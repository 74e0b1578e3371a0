package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	pkgerrors "social-catering/backend/pkg/errors"
)

// PostgreSQL 错误码
const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// ShiftCapacityConstraint 容量触发器抛出的约束名
const ShiftCapacityConstraint = "shift_capacity"

// TranslateError 将存储层错误归类为 pkg/errors 中的错误类别，原始错误保留在链中
//   - 唯一约束冲突、容量触发器 → ErrConcurrencyConflict
//   - 序列化失败、死锁、锁等待超时 → ErrRetryable
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s: %w", pkgerrors.ErrConcurrencyConflict, pgErr.ConstraintName, err)
	case pgCheckViolation:
		if pgErr.ConstraintName == ShiftCapacityConstraint {
			return fmt.Errorf("%w: %s: %w", pkgerrors.ErrConcurrencyConflict, pgErr.ConstraintName, err)
		}
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return fmt.Errorf("%w: %w", pkgerrors.ErrRetryable, err)
	}
	return err
}
