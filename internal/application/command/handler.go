package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// Handler 命令处理器
// 每个处理器负责解码自己的载荷（信封中的message字段）
type Handler interface {
	Kind() Kind
	Handle(ctx context.Context, payload []byte) error
}

// HandlerFunc 函数适配为Handler
type HandlerFunc struct {
	K  Kind
	Fn func(ctx context.Context, payload []byte) error
}

func (h HandlerFunc) Kind() Kind { return h.K }

func (h HandlerFunc) Handle(ctx context.Context, payload []byte) error {
	return h.Fn(ctx, payload)
}

// Registry 静态的路由表：一个种类对应一个处理器
type Registry struct {
	handlers map[Kind]Handler
}

// NewRegistry 注册处理器，种类重复或无效时报错
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{handlers: make(map[Kind]Handler, len(handlers))}
	for _, h := range handlers {
		k := h.Kind()
		if !k.Valid() {
			return nil, fmt.Errorf("无效的命令种类: %d", int(k))
		}
		if _, dup := r.handlers[k]; dup {
			return nil, fmt.Errorf("命令种类重复注册: %s", k)
		}
		r.handlers[k] = h
	}
	return r, nil
}

// Lookup 查找处理器
func (r *Registry) Lookup(k Kind) (Handler, bool) {
	h, ok := r.handlers[k]
	return h, ok
}

// RoutingKeys 已注册处理器的路由键（按种类顺序）
func (r *Registry) RoutingKeys() []string {
	keys := make([]string, 0, len(r.handlers))
	for _, k := range All() {
		if _, ok := r.handlers[k]; ok {
			keys = append(keys, k.RoutingKey())
		}
	}
	return keys
}

// Decode 解码命令载荷，失败时返回InvalidData
func Decode[T any](payload []byte) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, apperrors.WithCode(apperrors.ErrCodeInvalidParams, err, "命令载荷格式错误")
	}
	return v, nil
}

// UpsertHandler 解码实体载荷后交给fn
func UpsertHandler[T any](kind Kind, fn func(ctx context.Context, entity *T) error) Handler {
	return HandlerFunc{K: kind, Fn: func(ctx context.Context, payload []byte) error {
		entity, err := Decode[T](payload)
		if err != nil {
			return err
		}
		return fn(ctx, &entity)
	}}
}

// DeletionHandler 解码删除载荷后交给fn
func DeletionHandler(kind Kind, fn func(ctx context.Context, id uuid.UUID) error) Handler {
	return HandlerFunc{K: kind, Fn: func(ctx context.Context, payload []byte) error {
		d, err := Decode[shared.Deletion](payload)
		if err != nil {
			return err
		}
		if d.ID == uuid.Nil {
			return apperrors.New(apperrors.ErrCodeInvalidParams, "删除命令缺少id")
		}
		return fn(ctx, d.ID)
	}}
}

// Publisher 命令发布接口
// Publish发布内部命令（<entity>.<action>），Notify发布写入完成通知（external.<entity>.<action>）
type Publisher interface {
	Publish(ctx context.Context, kind Kind, payload any) error
	Notify(ctx context.Context, kind Kind, payload any) error
}
