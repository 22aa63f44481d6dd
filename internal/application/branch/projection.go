package branch

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/internal/domain/branch"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	"github.com/xiebiao/bookcatalog/pkg/logger"
	"github.com/xiebiao/bookcatalog/pkg/tracing"
)

// Transactor 在一个事务中执行fn（postgres.TxManager实现）
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// WriteUseCase 消费者侧的分馆写入
// 设计说明:
// 1. 分馆行与它的馆藏分区在同一个事务中提交
// 2. 分区创建失败时分馆写入一起回滚，消息重投后整体重试
// 3. 删除分馆时先删除分区（连同其中的馆藏），再删除分馆行
type WriteUseCase struct {
	tx         Transactor
	repo       branch.Repository
	partitions branch.PartitionManager
	publisher  command.Publisher
	logger     *zap.Logger
}

// NewWriteUseCase 创建分馆写入用例
func NewWriteUseCase(
	tx Transactor,
	repo branch.Repository,
	partitions branch.PartitionManager,
	publisher command.Publisher,
	logger *zap.Logger,
) *WriteUseCase {
	return &WriteUseCase{
		tx:         tx,
		repo:       repo,
		partitions: partitions,
		publisher:  publisher,
		logger:     logger,
	}
}

// Handlers 注册到分发器的处理器
func (uc *WriteUseCase) Handlers() []command.Handler {
	return []command.Handler{
		command.UpsertHandler(command.BranchUpsert, uc.Upsert),
		command.DeletionHandler(command.BranchDeletion, uc.Delete),
	}
}

// Upsert 写入分馆并确保分区存在
func (uc *WriteUseCase) Upsert(ctx context.Context, b *branch.Branch) (err error) {
	if err := b.Validate(); err != nil {
		return err
	}

	ctx, span := tracing.StartSpan(ctx, "branch.upsert")
	defer func() { tracing.EndSpan(span, err) }()

	err = uc.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := uc.repo.Upsert(ctx, b); err != nil {
			return err
		}
		return uc.partitions.EnsurePartition(ctx, b.ID)
	})
	if err != nil {
		return err
	}

	logger.WithContext(ctx, uc.logger).Info("分馆已写入",
		zap.String("branch_id", b.ID.String()), zap.Int("version", b.Version))
	uc.notify(ctx, command.BranchUpsert, b)
	return nil
}

// Delete 删除分馆及其分区，不存在时不报错
func (uc *WriteUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	err := uc.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := uc.partitions.DropPartition(ctx, id); err != nil {
			return err
		}
		return uc.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.notify(ctx, command.BranchDeletion, shared.Deletion{ID: id})
	return nil
}

func (uc *WriteUseCase) notify(ctx context.Context, kind command.Kind, payload any) {
	if err := uc.publisher.Notify(ctx, kind, payload); err != nil {
		logger.WithContext(ctx, uc.logger).Warn("发布对外通知失败",
			zap.String("routing_key", kind.ExternalRoutingKey()), zap.Error(err))
	}
}
