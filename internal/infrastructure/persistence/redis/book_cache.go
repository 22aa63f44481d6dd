package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
)

const bookKeyPrefix = "catalog:book:"

// BookCache 图书详情缓存（Cache-Aside）
// 设计说明：
// 1. 读路径未命中时由调用方查库后回填
// 2. 消费者写入或删除图书后删除缓存，下一次读取重新加载
// 3. Key设计：catalog:book:{id}，值为图书的JSON
type BookCache struct {
	client redis.UniversalClient
}

// NewBookCache 创建图书缓存
func NewBookCache(client redis.UniversalClient) *BookCache {
	metrics.InitMetrics()
	return &BookCache{client: client}
}

func bookKey(id uuid.UUID) string {
	return bookKeyPrefix + id.String()
}

// Get 读取缓存，未命中返回(nil, nil)
func (c *BookCache) Get(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	data, err := c.client.Get(ctx, bookKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		recordCache("miss")
		return nil, nil
	}
	if err != nil {
		recordCache("error")
		return nil, apperrors.WithCode(apperrors.ErrCodeRedisError, err, "读取图书缓存失败")
	}

	var b book.Book
	if err := json.Unmarshal(data, &b); err != nil {
		// 格式不兼容的旧缓存按未命中处理
		recordCache("miss")
		_ = c.client.Del(ctx, bookKey(id)).Err()
		return nil, nil
	}
	recordCache("hit")
	return &b, nil
}

// Set 写入缓存
func (c *BookCache) Set(ctx context.Context, b *book.Book, ttl time.Duration) error {
	data, err := json.Marshal(b)
	if err != nil {
		return apperrors.Wrap(err, "序列化图书缓存失败")
	}
	if err := c.client.Set(ctx, bookKey(b.ID), data, ttl).Err(); err != nil {
		return apperrors.WithCode(apperrors.ErrCodeRedisError, err, "写入图书缓存失败")
	}
	return nil
}

// Delete 删除缓存
func (c *BookCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, bookKey(id)).Err(); err != nil {
		return apperrors.WithCode(apperrors.ErrCodeRedisError, err, "删除图书缓存失败")
	}
	return nil
}

func recordCache(result string) {
	metrics.IncCounterVec(metrics.CacheRequestsTotal, map[string]string{"cache": "book", "result": result})
}
