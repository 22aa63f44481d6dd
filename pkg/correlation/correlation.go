// Package correlation 维护跨进程传递的关联ID（CID）
//
// CID是一条因果链而非树：每经过一次发布，就在调用方的CID后追加一个新的
// UUIDv7后缀，格式为 <上游CID>-<uuid7>。
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// HeaderName HTTP请求头与AMQP消息头中的CID字段名
const HeaderName = "X-Correlation-ID"

type ctxKey struct{}

// WithID 将CID写入context
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext 读取context中的CID，没有则返回空字符串
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// New 生成一个新的根CID
func New() string {
	return newSuffix()
}

// Extend 在已有CID后追加新的后缀
// 空CID直接返回新的根CID
func Extend(id string) string {
	if id == "" {
		return newSuffix()
	}
	return id + "-" + newSuffix()
}

// EnsureID 确保context中有CID，没有则生成根CID
func EnsureID(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := New()
	return WithID(ctx, id), id
}

func newSuffix() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7只在随机源失败时返回错误
		return uuid.NewString()
	}
	return id.String()
}
