// Package branch 分馆用例
package branch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/internal/domain/branch"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
)

// CommandUseCase 分馆写命令
type CommandUseCase struct {
	repo      branch.Repository
	publisher command.Publisher
	now       func() time.Time
}

// NewCommandUseCase 创建分馆写命令用例
func NewCommandUseCase(repo branch.Repository, publisher command.Publisher) *CommandUseCase {
	return &CommandUseCase{repo: repo, publisher: publisher, now: time.Now}
}

// CreateRequest 新建分馆
type CreateRequest struct {
	Name  string
	Actor string
}

// UpdateRequest 修改分馆，Version为客户端读到的版本
type UpdateRequest struct {
	ID      uuid.UUID
	Name    string
	Version int
	Actor   string
}

// Create 发布新建命令
func (uc *CommandUseCase) Create(ctx context.Context, req CreateRequest) (*branch.Branch, error) {
	id, err := shared.NewID()
	if err != nil {
		return nil, err
	}
	b := &branch.Branch{ID: id, Name: req.Name, Metadata: shared.NewMetadata(req.Actor, uc.now())}
	return b, uc.publish(ctx, b)
}

// Update 发布修改命令
func (uc *CommandUseCase) Update(ctx context.Context, req UpdateRequest) (*branch.Branch, error) {
	existing, err := uc.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, branch.ErrBranchNotFound
	}

	meta, err := shared.Revise(existing.Metadata, req.Version, req.Actor, uc.now())
	if err != nil {
		return nil, err
	}
	b := &branch.Branch{ID: existing.ID, Name: req.Name, Metadata: meta}
	return b, uc.publish(ctx, b)
}

// Delete 发布删除命令
func (uc *CommandUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.publisher.Publish(ctx, command.BranchDeletion, shared.Deletion{ID: id})
}

func (uc *CommandUseCase) publish(ctx context.Context, b *branch.Branch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return uc.publisher.Publish(ctx, command.BranchUpsert, b)
}
