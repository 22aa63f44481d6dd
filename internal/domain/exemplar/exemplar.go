// Package exemplar 馆藏（某分馆持有的一本实体书）
//
// 自然键为(book_id, branch_id)：同一分馆同一本书只有一条记录。
package exemplar

import (
	"context"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// Exemplar 馆藏
type Exemplar struct {
	ID        uuid.UUID `json:"id"`
	Available bool      `json:"available"`
	Room      int       `json:"room"`
	Floor     int       `json:"floor"`
	Bookshelf int       `json:"bookshelf"`
	BookID    uuid.UUID `json:"book_id"`
	BranchID  uuid.UUID `json:"branch_id"`
	shared.Metadata
}

var (
	ErrExemplarNotFound = apperrors.New(apperrors.ErrCodeNotFound, "馆藏不存在")
	ErrInvalidLocation  = apperrors.New(apperrors.ErrCodeInvalidParams, "房间、楼层、书架编号必须大于等于1")
)

// Validate 校验馆藏
func (e *Exemplar) Validate() error {
	if e.ID == uuid.Nil || e.BookID == uuid.Nil || e.BranchID == uuid.Nil {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "id、book_id、branch_id不能为空")
	}
	if e.Room < 1 || e.Floor < 1 || e.Bookshelf < 1 {
		return ErrInvalidLocation
	}
	if err := e.Metadata.Validate(); err != nil {
		return apperrors.WithCode(apperrors.ErrCodeInvalidParams, err, "馆藏元数据无效")
	}
	return nil
}

// BranchFilter 某分馆的馆藏查询条件，按所属图书的属性过滤
type BranchFilter struct {
	BranchID   uuid.UUID
	Available  *bool
	ISBNCode   string
	Editor     string
	Edition    *int
	Type       book.Type
	AuthorName string
	Page       int
	Size       int
}

// Repository 馆藏仓储
// 查询方法在记录不存在时返回(nil, nil)
type Repository interface {
	// Upsert 按(book_id, branch_id)写入
	// 已存在的记录保留id与创建信息，并在其上执行版本CAS
	Upsert(ctx context.Context, e *Exemplar) error

	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Exemplar, error)
	FindByBookAndBranch(ctx context.Context, bookID, branchID uuid.UUID) (*Exemplar, error)
	FilterByBranch(ctx context.Context, f BranchFilter) ([]*Exemplar, error)
}
