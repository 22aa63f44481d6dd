package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired ctx结束前未能拿到锁
var ErrLockNotAcquired = errors.New("未能获取锁")

// releaseScript 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PartitionLock 基于SET NX的跨进程互斥锁
// 设计说明：
// 1. 值为随机token，释放时比较token，避免误删其他进程在锁过期后拿到的锁
// 2. TTL兜底：持有者崩溃后锁自动过期
// 3. 拿不到锁时按固定间隔重试，直到ctx结束
type PartitionLock struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
}

// NewPartitionLock 创建分区锁
func NewPartitionLock(client redis.UniversalClient, ttl time.Duration) *PartitionLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &PartitionLock{client: client, ttl: ttl, retry: 100 * time.Millisecond}
}

// Acquire 获取锁，返回释放函数
func (l *PartitionLock) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	key = "catalog:lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("获取锁%s失败: %w", key, err)
		}
		if ok {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}
