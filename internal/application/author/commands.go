// Package author 作者用例
//
// 写入分两段：HTTP侧的命令用例只做校验并发布命令（202），
// 消费者侧的写入用例执行版本CAS写入并发布对外通知。
package author

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/internal/domain/author"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
)

// CommandUseCase 作者写命令
type CommandUseCase struct {
	repo      author.Repository
	publisher command.Publisher
	now       func() time.Time
}

// NewCommandUseCase 创建作者写命令用例
func NewCommandUseCase(repo author.Repository, publisher command.Publisher) *CommandUseCase {
	return &CommandUseCase{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreateRequest 新建作者
type CreateRequest struct {
	Name  string
	Actor string // 操作人（认证中间件提供）
}

// UpdateRequest 修改作者
// Version是客户端最后一次读到的版本，发布的命令版本为Version+1
type UpdateRequest struct {
	ID      uuid.UUID
	Name    string
	Version int
	Actor   string
}

// Create 发布新建命令（version=1）
func (uc *CommandUseCase) Create(ctx context.Context, req CreateRequest) (*author.Author, error) {
	id, err := shared.NewID()
	if err != nil {
		return nil, err
	}
	a := &author.Author{
		ID:       id,
		Name:     req.Name,
		Metadata: shared.NewMetadata(req.Actor, uc.now()),
	}
	return a, uc.publish(ctx, a)
}

// Update 发布修改命令
// 1. 作者必须存在
// 2. 客户端版本必须等于当前版本，提前拒绝明显过期的写入
// 3. 真正的并发控制仍由消费者侧的CAS负责
func (uc *CommandUseCase) Update(ctx context.Context, req UpdateRequest) (*author.Author, error) {
	existing, err := uc.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, author.ErrAuthorNotFound
	}

	meta, err := shared.Revise(existing.Metadata, req.Version, req.Actor, uc.now())
	if err != nil {
		return nil, err
	}
	a := &author.Author{ID: existing.ID, Name: req.Name, Metadata: meta}
	return a, uc.publish(ctx, a)
}

// Delete 发布删除命令，删除不存在的作者不报错
func (uc *CommandUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.publisher.Publish(ctx, command.AuthorDeletion, shared.Deletion{ID: id})
}

func (uc *CommandUseCase) publish(ctx context.Context, a *author.Author) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return uc.publisher.Publish(ctx, command.AuthorUpsert, a)
}
