// Package exemplar 馆藏用例
package exemplar

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/branch"
	"github.com/xiebiao/bookcatalog/internal/domain/exemplar"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// CommandUseCase 馆藏写命令
type CommandUseCase struct {
	repo      exemplar.Repository
	books     book.Repository
	branches  branch.Repository
	publisher command.Publisher
	now       func() time.Time
}

// NewCommandUseCase 创建馆藏写命令用例
func NewCommandUseCase(
	repo exemplar.Repository,
	books book.Repository,
	branches branch.Repository,
	publisher command.Publisher,
) *CommandUseCase {
	return &CommandUseCase{
		repo:      repo,
		books:     books,
		branches:  branches,
		publisher: publisher,
		now:       time.Now,
	}
}

// UpsertRequest 登记或修改某分馆持有的一本书
// Version为0时不校验客户端版本；非0时必须等于当前版本
type UpsertRequest struct {
	BookID    uuid.UUID
	BranchID  uuid.UUID
	Available bool
	Room      int
	Floor     int
	Bookshelf int
	Version   int
	Actor     string
}

// Upsert 按(book_id, branch_id)发布写入命令
// 1. 图书和分馆必须存在
// 2. 自然键已有记录：沿用其id和创建信息，版本为当前版本+1
// 3. 没有记录：生成新id，版本为1
func (uc *CommandUseCase) Upsert(ctx context.Context, req UpsertRequest) (*exemplar.Exemplar, error) {
	b, err := uc.books.FindByID(ctx, req.BookID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, book.ErrBookNotFound
	}
	br, err := uc.branches.FindByID(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}
	if br == nil {
		return nil, branch.ErrBranchNotFound
	}

	existing, err := uc.repo.FindByBookAndBranch(ctx, req.BookID, req.BranchID)
	if err != nil {
		return nil, err
	}

	e := &exemplar.Exemplar{
		Available: req.Available,
		Room:      req.Room,
		Floor:     req.Floor,
		Bookshelf: req.Bookshelf,
		BookID:    req.BookID,
		BranchID:  req.BranchID,
	}
	switch {
	case existing != nil && req.Version != 0:
		if e.Metadata, err = shared.Revise(existing.Metadata, req.Version, req.Actor, uc.now()); err != nil {
			return nil, err
		}
		e.ID = existing.ID
	case existing != nil:
		e.ID = existing.ID
		e.Metadata = shared.NextVersion(existing.Metadata, req.Actor, uc.now())
	default:
		if e.ID, err = shared.NewID(); err != nil {
			return nil, err
		}
		e.Metadata = shared.NewMetadata(req.Actor, uc.now())
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, uc.publisher.Publish(ctx, command.ExemplarUpsert, e)
}

// Delete 发布删除命令
func (uc *CommandUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "馆藏id不能为空")
	}
	return uc.publisher.Publish(ctx, command.ExemplarDeletion, shared.Deletion{ID: id})
}
