package exemplar

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/internal/domain/exemplar"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	"github.com/xiebiao/bookcatalog/pkg/logger"
)

// WriteUseCase 消费者侧的馆藏写入
// 分馆分区不存在时仓储返回ReferentialIntegrity，消息重投，
// 直到分馆命令被处理、分区创建完成
type WriteUseCase struct {
	repo      exemplar.Repository
	publisher command.Publisher
	logger    *zap.Logger
}

// NewWriteUseCase 创建馆藏写入用例
func NewWriteUseCase(repo exemplar.Repository, publisher command.Publisher, logger *zap.Logger) *WriteUseCase {
	return &WriteUseCase{repo: repo, publisher: publisher, logger: logger}
}

// Handlers 注册到分发器的处理器
func (uc *WriteUseCase) Handlers() []command.Handler {
	return []command.Handler{
		command.UpsertHandler(command.ExemplarUpsert, uc.Upsert),
		command.DeletionHandler(command.ExemplarDeletion, uc.Delete),
	}
}

// Upsert 按自然键写入，写入后e.ID为存储中的id
func (uc *WriteUseCase) Upsert(ctx context.Context, e *exemplar.Exemplar) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := uc.repo.Upsert(ctx, e); err != nil {
		return err
	}
	uc.notify(ctx, command.ExemplarUpsert, e)
	return nil
}

// Delete 删除馆藏
func (uc *WriteUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.notify(ctx, command.ExemplarDeletion, shared.Deletion{ID: id})
	return nil
}

func (uc *WriteUseCase) notify(ctx context.Context, kind command.Kind, payload any) {
	if err := uc.publisher.Notify(ctx, kind, payload); err != nil {
		logger.WithContext(ctx, uc.logger).Warn("发布对外通知失败",
			zap.String("routing_key", kind.ExternalRoutingKey()), zap.Error(err))
	}
}
