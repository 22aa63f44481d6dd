// Package metrics 提供基于Prometheus的指标收集
//
// 指标分三组：
//
//	HTTP:      http_requests_total / http_request_duration_seconds / http_requests_in_progress
//	命令通道:  catalog_messages_published_total / catalog_messages_consumed_total /
//	           catalog_message_processing_duration_seconds
//	写入与检索: catalog_optimistic_lock_conflicts_total / catalog_search_fallback_total /
//	           catalog_partitions_created_total / catalog_cache_requests_total /
//	           circuit_breaker_state / circuit_breaker_requests_total
//
// 使用方式：
//
//	metrics.InitMetrics()
//	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
//	metrics.IncCounterVec(metrics.SearchFallbackTotal, map[string]string{"reason": "error"})
//
// 标签只使用有限取值（routing_key、entity、result），不要使用id之类的高基数值。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数
	// 标签：method、path（路由模板）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 命令通道指标

	// MessagesPublishedTotal 消息发布总数
	// 标签：exchange、routing_key、result（success/failure）
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 消息消费总数
	// 标签：routing_key、result（success/failure/conflict/unknown）
	MessagesConsumedTotal *prometheus.CounterVec

	// MessageProcessingDuration 消息处理耗时
	MessageProcessingDuration *prometheus.HistogramVec

	// 写入与检索指标

	// OptimisticLockConflictsTotal 版本冲突次数
	// 标签：entity
	OptimisticLockConflictsTotal *prometheus.CounterVec

	// SearchFallbackTotal 检索降级到PostgreSQL的次数
	// 标签：reason（error/circuit_open）
	SearchFallbackTotal *prometheus.CounterVec

	// PartitionsCreatedTotal 新建的馆藏分区数
	PartitionsCreatedTotal prometheus.Counter

	// CacheRequestsTotal 缓存访问次数
	// 标签：cache、result（hit/miss/error）
	CacheRequestsTotal *prometheus.CounterVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数
	// 标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec
)

// InitMetrics 注册所有指标到默认Registry
// 可重复调用，只有第一次生效
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_messages_published_total",
			Help: "命令消息发布总数",
		},
		[]string{"exchange", "routing_key", "result"},
	)

	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_messages_consumed_total",
			Help: "命令消息消费总数",
		},
		[]string{"routing_key", "result"},
	)

	// 消费者处理包含数据库事务和索引刷新，桶比HTTP宽
	MessageProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_message_processing_duration_seconds",
			Help:    "命令消息处理耗时（秒）",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"routing_key"},
	)

	OptimisticLockConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_optimistic_lock_conflicts_total",
			Help: "版本冲突被丢弃的写入次数",
		},
		[]string{"entity"},
	)

	SearchFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_search_fallback_total",
			Help: "图书检索降级到PostgreSQL的次数",
		},
		[]string{"reason"},
	)

	PartitionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_partitions_created_total",
			Help: "新建的分馆馆藏分区数",
		},
	)

	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_requests_total",
			Help: "缓存访问次数",
		},
		[]string{"cache", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)
}

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	counter.Inc()
}

// IncCounterVec 递增CounterVec（带标签）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	gauge.Dec()
}

// SetGaugeVec 设置GaugeVec值（带标签）
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	gauge.With(labels).Set(value)
}

// ObserveHistogramVec 记录HistogramVec观测值（带标签）
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	histogram.With(labels).Observe(value)
}
