// Package branch 图书馆分馆聚合
//
// 每个分馆在physical_exemplar分区表中拥有一个独立分区，
// 分区必须在该分馆的第一条馆藏写入之前存在。
package branch

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// Branch 分馆
type Branch struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	shared.Metadata
}

var (
	ErrBranchNotFound = apperrors.New(apperrors.ErrCodeNotFound, "分馆不存在")
	ErrInvalidName    = apperrors.New(apperrors.ErrCodeInvalidParams, "分馆名称不能为空")
)

// Validate 校验分馆
func (b *Branch) Validate() error {
	if b.ID == uuid.Nil {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "分馆id不能为空")
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrInvalidName
	}
	if err := b.Metadata.Validate(); err != nil {
		return apperrors.WithCode(apperrors.ErrCodeInvalidParams, err, "分馆元数据无效")
	}
	return nil
}

// Repository 分馆仓储
// 查询方法在记录不存在时返回(nil, nil)
type Repository interface {
	Upsert(ctx context.Context, b *Branch) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)
	FilterByName(ctx context.Context, name string, page, size int) ([]*Branch, error)
}

// PartitionManager 馆藏分区管理
type PartitionManager interface {
	// EnsurePartition 幂等地创建分馆对应的分区，分区已存在视为成功
	EnsurePartition(ctx context.Context, branchID uuid.UUID) error

	// DropPartition 删除分馆对应的分区，不存在时不报错
	DropPartition(ctx context.Context, branchID uuid.UUID) error
}
