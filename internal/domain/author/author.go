// Package author 作者聚合
package author

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// Author 作者
type Author struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	shared.Metadata
}

var (
	// ErrAuthorNotFound 作者不存在
	ErrAuthorNotFound = apperrors.New(apperrors.ErrCodeNotFound, "作者不存在")

	// ErrInvalidName 作者姓名为空
	ErrInvalidName = apperrors.New(apperrors.ErrCodeInvalidParams, "作者姓名不能为空")
)

// Validate 校验作者
func (a *Author) Validate() error {
	if a.ID == uuid.Nil {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "作者id不能为空")
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrInvalidName
	}
	if err := a.Metadata.Validate(); err != nil {
		return apperrors.WithCode(apperrors.ErrCodeInvalidParams, err, "作者元数据无效")
	}
	return nil
}

// Repository 作者仓储
// 查询方法在记录不存在时返回(nil, nil)
type Repository interface {
	// Upsert 版本CAS写入：不存在则插入，存在则要求存储版本等于Version-1
	Upsert(ctx context.Context, a *Author) error

	// Delete 删除作者，不存在时不报错
	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*Author, error)

	// FindByIDs 按id批量查询，结果中缺失的id表示不存在
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Author, error)

	// FilterByName 按姓名相似度（pg_trgm similarity > 0.2）查询
	FilterByName(ctx context.Context, name string, page, size int) ([]*Author, error)
}
