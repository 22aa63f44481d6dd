package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// TokenBlacklist 访问令牌黑名单
// JWT是无状态的，通过黑名单让令牌在过期前失效
// Key设计：catalog:blacklist:{token}，TTL等于令牌剩余有效期，过期自动清理
type TokenBlacklist struct {
	client redis.UniversalClient
}

// NewTokenBlacklist 创建令牌黑名单
func NewTokenBlacklist(client redis.UniversalClient) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

// Revoke 将令牌加入黑名单
func (s *TokenBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // 已过期的令牌无需加入
	}
	if err := s.client.Set(ctx, "catalog:blacklist:"+token, "revoked", ttl).Err(); err != nil {
		return apperrors.WithCode(apperrors.ErrCodeRedisError, err, "添加Token到黑名单失败")
	}
	return nil
}

// IsRevoked 检查令牌是否已失效
func (s *TokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, "catalog:blacklist:"+token).Result()
	if err != nil {
		return false, apperrors.WithCode(apperrors.ErrCodeRedisError, err, "检查黑名单失败")
	}
	return n > 0, nil
}
