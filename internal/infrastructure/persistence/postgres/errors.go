package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// PostgreSQL错误码
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514" // 也用于"no partition of relation found for row"
	codeNotNullViolation    = "23502"
	codeInvalidTextRepr     = "22P02"
	codeDuplicateTable      = "42P07"
	codeDuplicateObject     = "42710"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// classify 把数据库错误转换为业务错误
// 1. 外键/分区缺失 → ReferentialIntegrity
// 2. 主键冲突 → OptimisticLock（并发插入同一id，另一写入者先提交）
// 3. 其他唯一约束、非空、格式错误 → InvalidData
// 4. 其余 → DatabaseError
func classify(err error, message string) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}

	pgErr, ok := pgError(err)
	if !ok {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.WithCode(apperrors.ErrCodeInvalidParams, err, message)
		}
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return apperrors.WithCode(apperrors.ErrCodeReferentialIntegrity, err, message)
		}
		return apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, message)
	}

	switch pgErr.Code {
	case codeForeignKeyViolation, codeCheckViolation:
		return apperrors.WithCode(apperrors.ErrCodeReferentialIntegrity, err, message)
	case codeUniqueViolation:
		if strings.HasSuffix(pgErr.ConstraintName, "_pkey") {
			return apperrors.WithCode(apperrors.ErrCodeOptimisticLock, err, message)
		}
		return apperrors.WithCode(apperrors.ErrCodeInvalidParams, err, message)
	case codeNotNullViolation, codeInvalidTextRepr:
		return apperrors.WithCode(apperrors.ErrCodeInvalidParams, err, message)
	}
	return apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, message)
}

// isDuplicateObject 并发DDL的重复对象错误
// CREATE ... IF NOT EXISTS在并发时仍可能在pg_type上触发唯一约束冲突
func isDuplicateObject(err error) bool {
	pgErr, ok := pgError(err)
	if !ok {
		return false
	}
	switch pgErr.Code {
	case codeDuplicateTable, codeDuplicateObject:
		return true
	case codeUniqueViolation:
		return strings.HasPrefix(pgErr.ConstraintName, "pg_")
	}
	return false
}
