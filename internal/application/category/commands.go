// Package category 图书分类用例
package category

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/internal/domain/category"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
)

// CommandUseCase 分类写命令
type CommandUseCase struct {
	repo      category.Repository
	publisher command.Publisher
	now       func() time.Time
}

// NewCommandUseCase 创建分类写命令用例
func NewCommandUseCase(repo category.Repository, publisher command.Publisher) *CommandUseCase {
	return &CommandUseCase{repo: repo, publisher: publisher, now: time.Now}
}

// CreateRequest 新建分类
type CreateRequest struct {
	Title       string
	Description *string
	Actor       string
}

// UpdateRequest 修改分类，Version为客户端读到的版本
type UpdateRequest struct {
	ID          uuid.UUID
	Title       string
	Description *string
	Version     int
	Actor       string
}

// Create 发布新建命令
// 标题全局唯一：标题已存在时沿用已有分类的id和创建信息，版本+1，
// 相当于用新内容覆盖同名分类
func (uc *CommandUseCase) Create(ctx context.Context, req CreateRequest) (*category.Category, error) {
	existing, err := uc.repo.FindByTitle(ctx, req.Title)
	if err != nil {
		return nil, err
	}

	c := &category.Category{Title: req.Title, Description: req.Description}
	if existing != nil {
		c.ID = existing.ID
		c.Metadata = shared.NextVersion(existing.Metadata, req.Actor, uc.now())
	} else {
		if c.ID, err = shared.NewID(); err != nil {
			return nil, err
		}
		c.Metadata = shared.NewMetadata(req.Actor, uc.now())
	}
	return c, uc.publish(ctx, c)
}

// Update 发布修改命令
func (uc *CommandUseCase) Update(ctx context.Context, req UpdateRequest) (*category.Category, error) {
	existing, err := uc.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, category.ErrCategoryNotFound
	}

	meta, err := shared.Revise(existing.Metadata, req.Version, req.Actor, uc.now())
	if err != nil {
		return nil, err
	}
	c := &category.Category{ID: existing.ID, Title: req.Title, Description: req.Description, Metadata: meta}
	return c, uc.publish(ctx, c)
}

// Delete 发布删除命令
func (uc *CommandUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.publisher.Publish(ctx, command.CategoryDeletion, shared.Deletion{ID: id})
}

func (uc *CommandUseCase) publish(ctx context.Context, c *category.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return uc.publisher.Publish(ctx, command.CategoryUpsert, c)
}
