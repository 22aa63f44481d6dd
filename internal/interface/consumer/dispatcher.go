// Package consumer 命令分发器
//
// 每个消费者进程一个分发器：串行处理一条消息（解码 → 处理器 → 提交 → 投影）后再取下一条。
// 处理器返回nil时Ack；返回错误时Nack并重新入队（at-least-once，无死信队列）。
// 版本冲突是例外：记录告警后Ack，重复投递的消息不会无限重试。
package consumer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/pkg/correlation"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/logger"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
	"github.com/xiebiao/bookcatalog/pkg/mq"
	"github.com/xiebiao/bookcatalog/pkg/tracing"
)

// 消费结果（catalog_messages_consumed_total的result标签）
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultConflict = "conflict"
	ResultUnknown  = "unknown"
)

// Source 消息来源（*mq.Consumer实现）
type Source interface {
	Consume(ctx context.Context, handler mq.Handler) error
	DrainOne(ctx context.Context, routingKey string, handler mq.Handler) error
}

// Dispatcher 按路由键把消息分发给已注册的处理器
type Dispatcher struct {
	registry *command.Registry
	logger   *zap.Logger
}

// NewDispatcher 创建分发器
func NewDispatcher(registry *command.Registry, logger *zap.Logger) *Dispatcher {
	metrics.InitMetrics()
	return &Dispatcher{registry: registry, logger: logger}
}

// RoutingKeys 需要绑定到队列的路由键
func (d *Dispatcher) RoutingKeys() []string {
	return d.registry.RoutingKeys()
}

// Run 阻塞消费直到ctx取消
func (d *Dispatcher) Run(ctx context.Context, src Source) error {
	return src.Consume(ctx, d.Dispatch)
}

// DrainOne 测试模式：只处理第一条匹配routingKey的消息
func (d *Dispatcher) DrainOne(ctx context.Context, src Source, routingKey string) error {
	if _, ok := command.ParseKind(routingKey); !ok {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "未知的路由键: "+routingKey)
	}
	return src.DrainOne(ctx, routingKey, d.Dispatch)
}

// Dispatch 处理一条消息，签名与mq.Handler一致
// 1. 从消息头恢复链路与CID
// 2. 按路由键找到处理器，解析信封并校验queue_name与路由键一致
// 3. 处理器解码载荷并执行
// 4. 版本冲突记为conflict并Ack；其他错误返回给mq层Nack重投
func (d *Dispatcher) Dispatch(ctx context.Context, msg mq.Delivery) (err error) {
	start := time.Now()

	ctx = tracing.ExtractHeaders(ctx, msg.Headers)
	cid := msg.Headers[correlation.HeaderName]
	if cid == "" {
		cid = correlation.New()
	}
	ctx = correlation.WithID(ctx, cid)

	ctx, span := tracing.StartSpan(ctx, "consumer.dispatch "+msg.RoutingKey)
	log := logger.WithContext(ctx, d.logger)

	log.Info("consumer_in",
		zap.Bool("consumer_in", true),
		zap.String("routing_key", msg.RoutingKey),
		zap.String("exchange", msg.Exchange),
		zap.ByteString("body", msg.Body),
	)

	result := ResultSuccess
	defer func() {
		tracing.EndSpan(span, err)
		metrics.IncCounterVec(metrics.MessagesConsumedTotal, map[string]string{
			"routing_key": msg.RoutingKey,
			"result":      result,
		})
		metrics.ObserveHistogramVec(metrics.MessageProcessingDuration, map[string]string{
			"routing_key": msg.RoutingKey,
		}, time.Since(start).Seconds())
	}()

	handler, kind, err := d.resolve(msg)
	if err != nil {
		result = ResultUnknown
		d.logFailure(log, msg, err)
		return err
	}

	env, err := mq.DecodeEnvelope(msg.Body)
	if err != nil {
		result = ResultFailure
		err = apperrors.WithCode(apperrors.ErrCodeInvalidParams, err, "消息信封格式错误")
		d.logFailure(log, msg, err)
		return err
	}
	// 信封queue_name与路由键必须一致，不一致时不调用处理器
	if env.QueueName != msg.RoutingKey {
		result = ResultFailure
		err = apperrors.New(apperrors.ErrCodeInvalidParams,
			fmt.Sprintf("信封queue_name(%s)与路由键(%s)不一致", env.QueueName, msg.RoutingKey))
		d.logFailure(log, msg, err)
		return err
	}

	err = handler.Handle(ctx, []byte(env.Message))
	switch {
	case err == nil:
		log.Info("消息处理完成", zap.Duration("elapsed", time.Since(start)))
		return nil

	case apperrors.IsOptimisticLock(err):
		result = ResultConflict
		metrics.IncCounterVec(metrics.OptimisticLockConflictsTotal, map[string]string{"entity": kind.Entity()})
		log.Warn("版本冲突，写入已跳过",
			zap.String("routing_key", msg.RoutingKey),
			zap.String("entity", kind.Entity()),
			zap.Error(err),
		)
		return nil

	default:
		result = ResultFailure
		d.logFailure(log, msg, err)
		return err
	}
}

func (d *Dispatcher) resolve(msg mq.Delivery) (command.Handler, command.Kind, error) {
	kind, ok := command.ParseKind(msg.RoutingKey)
	if !ok {
		return nil, 0, fmt.Errorf("未知的路由键: %s", msg.RoutingKey)
	}
	handler, ok := d.registry.Lookup(kind)
	if !ok {
		return nil, kind, fmt.Errorf("路由键没有注册处理器: %s", msg.RoutingKey)
	}
	return handler, kind, nil
}

// logFailure 记录完整上下文，CID追加一段后缀标记这次失败
func (d *Dispatcher) logFailure(log *zap.Logger, msg mq.Delivery, err error) {
	log.Error("消息处理失败，重新入队",
		zap.String("routing_key", msg.RoutingKey),
		zap.String("exchange", msg.Exchange),
		zap.ByteString("body", msg.Body),
		zap.String("error_cid", correlation.Extend(msg.Headers[correlation.HeaderName])),
		zap.Error(err),
	)
}
