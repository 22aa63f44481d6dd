package author

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/internal/domain/author"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	"github.com/xiebiao/bookcatalog/pkg/logger"
)

// WriteUseCase 消费者侧的作者写入
type WriteUseCase struct {
	repo      author.Repository
	publisher command.Publisher
	logger    *zap.Logger
}

// NewWriteUseCase 创建作者写入用例
func NewWriteUseCase(repo author.Repository, publisher command.Publisher, logger *zap.Logger) *WriteUseCase {
	return &WriteUseCase{repo: repo, publisher: publisher, logger: logger}
}

// Handlers 注册到分发器的处理器
func (uc *WriteUseCase) Handlers() []command.Handler {
	return []command.Handler{
		command.UpsertHandler(command.AuthorUpsert, uc.Upsert),
		command.DeletionHandler(command.AuthorDeletion, uc.Delete),
	}
}

// Upsert 版本CAS写入，成功后发布external.author.upsert
func (uc *WriteUseCase) Upsert(ctx context.Context, a *author.Author) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := uc.repo.Upsert(ctx, a); err != nil {
		return err
	}
	notify(ctx, uc.publisher, uc.logger, command.AuthorUpsert, a)
	return nil
}

// Delete 删除作者，成功后发布external.author.deletion
func (uc *WriteUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	notify(ctx, uc.publisher, uc.logger, command.AuthorDeletion, shared.Deletion{ID: id})
	return nil
}

// notify 写入提交后发布对外通知，失败只记录日志
func notify(ctx context.Context, p command.Publisher, l *zap.Logger, kind command.Kind, payload any) {
	if err := p.Notify(ctx, kind, payload); err != nil {
		logger.WithContext(ctx, l).Warn("发布对外通知失败",
			zap.String("routing_key", kind.ExternalRoutingKey()), zap.Error(err))
	}
}
