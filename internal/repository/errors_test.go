package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	pkgerrors "social-catering/backend/pkg/errors"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		conflict bool
		retry    bool
	}{
		{"有效排班唯一索引", &pgconn.PgError{Code: "23505", ConstraintName: "uq_assignments_active_worker_shift"}, true, false},
		{"容量触发器", &pgconn.PgError{Code: "23514", ConstraintName: ShiftCapacityConstraint}, true, false},
		{"其他检查约束不归类", &pgconn.PgError{Code: "23514", ConstraintName: "chk_shift_range"}, false, false},
		{"序列化失败", &pgconn.PgError{Code: "40001"}, false, true},
		{"死锁", &pgconn.PgError{Code: "40P01"}, false, true},
		{"锁等待超时", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "55P03"}), false, true},
		{"普通错误", errors.New("boom"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateError(tt.err)
			assert.Equal(t, tt.conflict, errors.Is(got, pkgerrors.ErrConcurrencyConflict))
			assert.Equal(t, tt.retry, errors.Is(got, pkgerrors.ErrRetryable))

			var pgErr *pgconn.PgError
			if errors.As(tt.err, &pgErr) {
				assert.True(t, errors.As(got, &pgErr), "原始 PgError 应保留在错误链中")
			}
		})
	}

	assert.NoError(t, TranslateError(nil))
}
