// Package messaging 命令生产者
package messaging

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/pkg/correlation"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/logger"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
	"github.com/xiebiao/bookcatalog/pkg/mq"
	"github.com/xiebiao/bookcatalog/pkg/tracing"
)

// Transport 底层消息发送（*mq.Publisher实现）
type Transport interface {
	Publish(ctx context.Context, routingKey string, body []byte, headers map[string]string) error
	Exchange() string
}

// Producer 把命令包装成信封发布到交换机
// 每次发布都在调用方CID后追加一段新的UUIDv7，形成因果链
type Producer struct {
	transport Transport
	logger    *zap.Logger
}

// NewProducer 创建生产者
func NewProducer(transport Transport, logger *zap.Logger) *Producer {
	metrics.InitMetrics()
	return &Producer{
		transport: transport,
		logger:    logger,
	}
}

// Publish 发布内部命令
func (p *Producer) Publish(ctx context.Context, kind command.Kind, payload any) error {
	return p.send(ctx, kind.RoutingKey(), payload)
}

// Notify 发布写入完成通知
func (p *Producer) Notify(ctx context.Context, kind command.Kind, payload any) error {
	return p.send(ctx, kind.ExternalRoutingKey(), payload)
}

func (p *Producer) send(ctx context.Context, routingKey string, payload any) error {
	if routingKey == "" {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "未知的命令种类")
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return apperrors.WithCode(apperrors.ErrCodeInvalidParams, err, "命令序列化失败")
	}

	env := mq.Envelope{QueueName: routingKey, Message: string(message)}
	body, err := env.Encode()
	if err != nil {
		return apperrors.WithCode(apperrors.ErrCodeBrokerError, err, "信封序列化失败")
	}

	ctx, span := tracing.StartSpan(ctx, "producer.publish "+routingKey)
	cid := correlation.Extend(correlation.FromContext(ctx))
	ctx = correlation.WithID(ctx, cid)

	headers := map[string]string{correlation.HeaderName: cid}
	tracing.InjectHeaders(ctx, headers)

	log := logger.WithContext(ctx, p.logger)
	log.Info("producer_out",
		zap.Bool("producer_out", true),
		zap.String("queue_name", env.QueueName),
		zap.String("message", env.Message),
		zap.String("exchange", p.transport.Exchange()),
		zap.String("routing_key", routingKey),
	)

	err = p.transport.Publish(ctx, routingKey, body, headers)
	tracing.EndSpan(span, err)

	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.IncCounterVec(metrics.MessagesPublishedTotal, map[string]string{
		"exchange":    p.transport.Exchange(),
		"routing_key": routingKey,
		"result":      result,
	})

	if err != nil {
		log.Error("发布命令失败", zap.String("routing_key", routingKey), zap.Error(err))
		return apperrors.WithCode(apperrors.ErrCodeBrokerError, err, "发布命令失败")
	}
	return nil
}
