// Package mq RabbitMQ命令通道
//
// 拓扑：
//
//	producer ──publish(routing_key)──> book-service-exchange (topic, durable)
//	                                        │ bind <entity>.<action>
//	                                        v
//	                                 book-service-queue (durable, 多消费者共享)
//
// 消费端手动确认：处理成功Ack，失败Nack并重新入队（at-least-once）。
// 没有死信队列，持续失败的消息会一直重投，重投速度由令牌桶限制。
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNoMessage DrainOne时队列为空
var ErrNoMessage = errors.New("mq: no message available")

// Envelope 线上消息格式
// {"queue_name": "<routing_key>", "message": "<json字符串>"}
type Envelope struct {
	QueueName string `json:"queue_name"`
	Message   string `json:"message"`
}

// Encode 序列化信封
func (e Envelope) Encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("信封序列化失败: %w", err)
	}
	return body, nil
}

// DecodeEnvelope 解析信封
func DecodeEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("信封解析失败: %w", err)
	}
	return env, nil
}

// Delivery 交给业务处理函数的消息
type Delivery struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Headers    map[string]string
}

// Handler 消息处理函数，返回错误时消息重新入队
type Handler func(ctx context.Context, d Delivery) error

// ExchangeConfig 交换机与队列
type ExchangeConfig struct {
	Exchange     string
	ExchangeType string
	Queue        string
}

// =========================================
// 连接
// =========================================

// Dial 连接RabbitMQ，失败时按固定间隔重试
// tries为总尝试次数（含第一次）
func Dial(ctx context.Context, url string, tries uint64, delay time.Duration, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	attempt := 0

	op := func() error {
		attempt++
		c, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("连接RabbitMQ失败，稍后重试", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		conn = c
		return nil
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(delay)
	if tries > 1 {
		b = backoff.WithMaxRetries(b, tries-1)
	} else {
		b = backoff.WithMaxRetries(b, 0)
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}
	logger.Info("RabbitMQ已连接", zap.Int("attempts", attempt))
	return conn, nil
}

func declareExchange(ch *amqp.Channel, cfg ExchangeConfig) error {
	err := ch.ExchangeDeclare(
		cfg.Exchange,
		cfg.ExchangeType,
		true,  // Durable
		false, // AutoDelete
		false, // Internal
		false, // NoWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("声明Exchange失败: %w", err)
	}
	return nil
}

// =========================================
// 发布者
// =========================================

// Publisher 消息发布者
// amqp.Channel不支持并发发布，这里用互斥锁串行化
type Publisher struct {
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
}

// NewPublisher 在已有连接上创建发布者并声明交换机
func NewPublisher(conn *amqp.Connection, cfg ExchangeConfig) (*Publisher, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	if err := declareExchange(channel, cfg); err != nil {
		channel.Close()
		return nil, err
	}

	return &Publisher{
		channel:  channel,
		exchange: cfg.Exchange,
	}, nil
}

// Exchange 交换机名称
func (p *Publisher) Exchange() string {
	return p.exchange
}

// Publish 发布持久化消息
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte, headers map[string]string) error {
	table := amqp.Table{}
	for k, v := range headers {
		table[k] = v
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Headers:      table,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}
	return nil
}

// Close 关闭Channel（连接由调用方关闭）
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}

// =========================================
// 消费者
// =========================================

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	ExchangeConfig
	RoutingKeys []string
	Prefetch    int
	// RetryRate 每秒允许的Nack重新入队次数，<=0表示不限制
	RetryRate float64
}

// Consumer 消息消费者
type Consumer struct {
	channel  *amqp.Channel
	exchange string
	queue    string
	prefetch int
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewConsumer 声明交换机、持久化队列并绑定路由键
func NewConsumer(conn *amqp.Connection, cfg ConsumerConfig, logger *zap.Logger) (*Consumer, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	if err := declareExchange(channel, cfg.ExchangeConfig); err != nil {
		channel.Close()
		return nil, err
	}

	q, err := channel.QueueDeclare(
		cfg.Queue,
		true,  // Durable
		false, // AutoDelete
		false, // Exclusive
		false, // NoWait
		nil,
	)
	if err != nil {
		channel.Close()
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	for _, routingKey := range cfg.RoutingKeys {
		if err := channel.QueueBind(q.Name, routingKey, cfg.Exchange, false, nil); err != nil {
			channel.Close()
			return nil, fmt.Errorf("绑定Queue失败(%s): %w", routingKey, err)
		}
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	logger.Info("消息消费者已创建",
		zap.String("queue", q.Name),
		zap.Strings("routing_keys", cfg.RoutingKeys),
	)

	return &Consumer{
		channel:  channel,
		exchange: cfg.Exchange,
		queue:    q.Name,
		prefetch: prefetch,
		limiter:  newRetryLimiter(cfg.RetryRate),
		logger:   logger,
	}, nil
}

func newRetryLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Queue 队列名称
func (c *Consumer) Queue() string {
	return c.queue
}

// Consume 阻塞消费直到ctx取消
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	if err := c.channel.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // Consumer标签（自动生成）
		false, // AutoAck
		false, // Exclusive
		false, // NoLocal
		false, // NoWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	c.logger.Info("开始消费消息", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("消费者退出", zap.String("queue", c.queue))
			return nil

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("消息Channel已关闭")
			}
			// handler错误由handler自己记录，这里只关心确认失败
			if _, ackErr := settle(ctx, msg, handler, c.limiter); ackErr != nil {
				c.logger.Error("消息确认失败", zap.String("routing_key", msg.RoutingKey), zap.Error(ackErr))
			}
		}
	}
}

// DrainOne 测试模式：逐条拉取消息，只处理第一条路由键匹配的消息
// 不匹配的消息在返回前全部重新入队；队列为空时返回ErrNoMessage
func (c *Consumer) DrainOne(ctx context.Context, routingKey string, handler Handler) error {
	var skipped []amqp.Delivery
	defer func() {
		for _, m := range skipped {
			if err := m.Nack(false, true); err != nil {
				c.logger.Warn("重新入队失败", zap.String("routing_key", m.RoutingKey), zap.Error(err))
			}
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, ok, err := c.channel.Get(c.queue, false)
		if err != nil {
			return fmt.Errorf("拉取消息失败: %w", err)
		}
		if !ok {
			return ErrNoMessage
		}

		if msg.RoutingKey != routingKey {
			skipped = append(skipped, msg)
			continue
		}

		// 测试模式不限流，错误直接返回给调用方
		handleErr, ackErr := settle(ctx, msg, handler, nil)
		if handleErr != nil {
			return handleErr
		}
		return ackErr
	}
}

// Close 关闭Channel（连接由调用方关闭）
func (c *Consumer) Close() error {
	if c.channel != nil {
		return c.channel.Close()
	}
	return nil
}

// settle 执行handler并确认消息
// handler成功Ack；失败时先经过限流再Nack(requeue=true)
func settle(ctx context.Context, msg amqp.Delivery, handler Handler, limiter *rate.Limiter) (handleErr, ackErr error) {
	handleErr = handler(ctx, toDelivery(msg))
	if handleErr == nil {
		return nil, msg.Ack(false)
	}

	if limiter != nil {
		// ctx取消时立即Nack，不再等待令牌
		_ = limiter.Wait(ctx)
	}
	return handleErr, msg.Nack(false, true)
}

func toDelivery(msg amqp.Delivery) Delivery {
	headers := make(map[string]string, len(msg.Headers))
	for k, v := range msg.Headers {
		switch val := v.(type) {
		case string:
			headers[k] = val
		case []byte:
			headers[k] = string(val)
		default:
			headers[k] = fmt.Sprint(val)
		}
	}
	return Delivery{
		Exchange:   msg.Exchange,
		RoutingKey: msg.RoutingKey,
		Body:       msg.Body,
		Headers:    headers,
	}
}
