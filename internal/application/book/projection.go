package book

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/logger"
	"github.com/xiebiao/bookcatalog/pkg/tracing"
)

// ProjectionUseCase 消费者侧的图书写入与投影
// 设计说明:
// 1. PostgreSQL是权威存储，先提交关系型写入（图书行CAS + 关联整体替换）
// 2. 提交后从主库重新读取聚合，构建检索文档写入Elasticsearch（refresh=wait_for）
// 3. 两个存储之间没有分布式事务：索引写入失败时返回错误，消息重投
// 4. 重投的消息撞上CAS（存储版本已等于提交版本）时，重新投影一次，修复失败的索引写入
type ProjectionUseCase struct {
	books     book.Repository
	index     book.SearchIndex
	cache     book.Cache
	publisher command.Publisher
	logger    *zap.Logger
}

// NewProjectionUseCase 创建图书投影用例
// index为nil时只写入PostgreSQL
func NewProjectionUseCase(
	books book.Repository,
	index book.SearchIndex,
	cache book.Cache,
	publisher command.Publisher,
	logger *zap.Logger,
) *ProjectionUseCase {
	return &ProjectionUseCase{
		books:     books,
		index:     index,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
}

// Handlers 注册到分发器的处理器
func (uc *ProjectionUseCase) Handlers() []command.Handler {
	return []command.Handler{
		command.UpsertHandler(command.BookUpsert, uc.Upsert),
		command.DeletionHandler(command.BookDeletion, uc.Delete),
	}
}

// Upsert 写入图书并投影到检索索引
func (uc *ProjectionUseCase) Upsert(ctx context.Context, b *book.Book) (err error) {
	if err := b.Validate(); err != nil {
		return err
	}

	ctx, span := tracing.StartSpan(ctx, "book.project")
	defer func() { tracing.EndSpan(span, err) }()
	log := logger.WithContext(ctx, uc.logger).With(
		zap.String("book_id", b.ID.String()), zap.Int("version", b.Version))

	// 1. 关系型写入
	if err := uc.books.Upsert(ctx, b); err != nil {
		if apperrors.IsOptimisticLock(err) {
			uc.reproject(ctx, b, log)
		}
		return err
	}

	// 2. 投影
	current, err := uc.project(ctx, b.ID)
	if err != nil {
		log.Error("写入检索索引失败，关系型写入已提交", zap.Error(err))
		return err
	}

	if current == nil {
		current = b
	}

	// 3. 详情缓存失效
	uc.evict(ctx, b.ID, log)

	log.Info("图书已写入并投影")
	uc.notify(ctx, command.BookUpsert, current, log)
	return nil
}

// Delete 删除图书、检索文档与缓存，不存在时不报错
func (uc *ProjectionUseCase) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracing.StartSpan(ctx, "book.delete")
	defer func() { tracing.EndSpan(span, err) }()
	log := logger.WithContext(ctx, uc.logger).With(zap.String("book_id", id.String()))

	if err := uc.books.Delete(ctx, id); err != nil {
		return err
	}
	if err := uc.unindex(ctx, id); err != nil {
		log.Error("删除检索文档失败，关系型删除已提交", zap.Error(err))
		return err
	}
	uc.evict(ctx, id, log)

	uc.notify(ctx, command.BookDeletion, shared.Deletion{ID: id}, log)
	return nil
}

// project 从主库读取当前聚合并写入索引
// 图书已被并发删除时跳过
func (uc *ProjectionUseCase) project(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	current, err := uc.books.FindCurrent(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil || uc.index == nil {
		return current, nil
	}
	if err := uc.index.Index(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (uc *ProjectionUseCase) unindex(ctx context.Context, id uuid.UUID) error {
	if uc.index == nil {
		return nil
	}
	return uc.index.Delete(ctx, id)
}

// reproject 存储版本等于提交版本时，说明这是已提交写入的重投，重新投影一次
// 失败只记录日志，CAS错误照常返回
func (uc *ProjectionUseCase) reproject(ctx context.Context, b *book.Book, log *zap.Logger) {
	current, err := uc.books.FindCurrent(ctx, b.ID)
	if err != nil || current == nil || current.Version != b.Version || uc.index == nil {
		return
	}
	if err := uc.index.Index(ctx, current); err != nil {
		log.Warn("重新投影失败", zap.Error(err))
		return
	}
	uc.evict(ctx, b.ID, log)
	log.Info("重投的消息已重新投影")
}

func (uc *ProjectionUseCase) evict(ctx context.Context, id uuid.UUID, log *zap.Logger) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, id); err != nil {
		log.Warn("删除图书缓存失败", zap.Error(err))
	}
}

func (uc *ProjectionUseCase) notify(ctx context.Context, kind command.Kind, payload any, log *zap.Logger) {
	if err := uc.publisher.Notify(ctx, kind, payload); err != nil {
		log.Warn("发布对外通知失败", zap.String("routing_key", kind.ExternalRoutingKey()), zap.Error(err))
	}
}
