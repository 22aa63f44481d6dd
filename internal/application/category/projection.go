package category

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/internal/domain/category"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	"github.com/xiebiao/bookcatalog/pkg/logger"
)

// WriteUseCase 消费者侧的分类写入
type WriteUseCase struct {
	repo      category.Repository
	publisher command.Publisher
	logger    *zap.Logger
}

// NewWriteUseCase 创建分类写入用例
func NewWriteUseCase(repo category.Repository, publisher command.Publisher, logger *zap.Logger) *WriteUseCase {
	return &WriteUseCase{repo: repo, publisher: publisher, logger: logger}
}

// Handlers 注册到分发器的处理器
func (uc *WriteUseCase) Handlers() []command.Handler {
	return []command.Handler{
		command.UpsertHandler(command.CategoryUpsert, uc.Upsert),
		command.DeletionHandler(command.CategoryDeletion, uc.Delete),
	}
}

// Upsert 版本CAS写入
func (uc *WriteUseCase) Upsert(ctx context.Context, c *category.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := uc.repo.Upsert(ctx, c); err != nil {
		return err
	}
	uc.notify(ctx, command.CategoryUpsert, c)
	return nil
}

// Delete 删除分类（图书关联级联删除）
func (uc *WriteUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.notify(ctx, command.CategoryDeletion, shared.Deletion{ID: id})
	return nil
}

func (uc *WriteUseCase) notify(ctx context.Context, kind command.Kind, payload any) {
	if err := uc.publisher.Notify(ctx, kind, payload); err != nil {
		logger.WithContext(ctx, uc.logger).Warn("发布对外通知失败",
			zap.String("routing_key", kind.ExternalRoutingKey()), zap.Error(err))
	}
}
