package book

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository 图书仓储接口（关系型存储）
// 设计说明:
// 1. 查询走从库，写入和FindCurrent走主库
// 2. 查询方法在记录不存在时返回(nil, nil)，由调用方决定是否视为错误
type Repository interface {
	// Upsert 版本CAS写入
	// 不存在则插入；存在则要求存储版本等于b.Version-1，否则返回ErrOptimisticLock
	// 同一事务内替换作者、分类关联和本地化数据
	Upsert(ctx context.Context, b *Book) error

	// Delete 删除图书及其关联，不存在时不报错
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID 从库查询
	FindByID(ctx context.Context, id uuid.UUID) (*Book, error)

	// FindCurrent 主库查询，用于写入后的重新投影
	FindCurrent(ctx context.Context, id uuid.UUID) (*Book, error)

	// Filter 关系型降级查询，只支持Filter的精确子集
	Filter(ctx context.Context, f Filter) ([]*Book, error)
}

// SearchIndex 检索索引（每本图书一个文档，以图书id为键）
type SearchIndex interface {
	// Index 写入文档并等待刷新可见
	Index(ctx context.Context, b *Book) error

	// Delete 删除文档，不存在时不报错
	Delete(ctx context.Context, id uuid.UUID) error

	// Search 按过滤条件检索
	Search(ctx context.Context, f Filter) ([]*Book, error)
}

// Cache 图书详情缓存
// Get未命中时返回(nil, nil)
type Cache interface {
	Get(ctx context.Context, id uuid.UUID) (*Book, error)
	Set(ctx context.Context, b *Book, ttl time.Duration) error
	Delete(ctx context.Context, id uuid.UUID) error
}
