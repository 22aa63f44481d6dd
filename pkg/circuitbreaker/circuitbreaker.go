// Package circuitbreaker 熔断器
//
// 图书检索以Elasticsearch为主路径，PostgreSQL为降级路径。
// 熔断器包住Elasticsearch调用：连续失败达到阈值后进入OPEN，
// 之后的检索直接走降级路径，不再等待超时。
//
// 状态机：
//
//	CLOSED ──(ReadyToTrip)──> OPEN ──(Timeout到期)──> HALF_OPEN
//	   ^                                                  │
//	   └──────(连续成功MaxRequests次)──────────────────────┘
//	HALF_OPEN中任意一次失败立即回到OPEN
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xiebiao/bookcatalog/pkg/metrics"
)

// State 熔断器状态
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrOpenState 熔断器打开（或半开状态探测名额已满）时返回
var ErrOpenState = errors.New("circuit breaker is open")

// Config 熔断器配置
type Config struct {
	// MaxRequests 半开状态允许的探测请求数，也是恢复CLOSED需要的连续成功数
	MaxRequests uint32
	// Interval CLOSED状态下统计窗口，到期清零计数；0表示不清零
	Interval time.Duration
	// Timeout OPEN状态持续时间
	Timeout time.Duration
	// ReadyToTrip CLOSED状态下每次失败后调用，返回true时熔断
	ReadyToTrip func(counts Counts) bool
	// IsSuccessful 判断调用结果是否计为成功，默认err == nil
	// 业务错误（如参数错误）不应计入下游故障
	IsSuccessful func(err error) bool
}

// DefaultConfig 30秒后半开探测，满足任一条件即熔断
// 1. 连续失败5次
// 2. 统计窗口内至少20次请求且失败率不低于50%
func DefaultConfig() Config {
	return Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts Counts) bool {
			if counts.ConsecutiveFailures >= 5 {
				return true
			}
			return counts.Requests >= 20 && counts.FailureRate() >= 0.5
		},
	}
}

// Counts 当前统计窗口内的计数
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// FailureRate 失败率
func (c Counts) FailureRate() float64 {
	if c.Requests == 0 {
		return 0
	}
	return float64(c.TotalFailures) / float64(c.Requests)
}

func (c *Counts) onSuccess() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) onFailure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// CircuitBreaker 熔断器，并发安全
type CircuitBreaker struct {
	name   string
	config Config
	now    func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64 // 每次状态切换递增，丢弃旧状态下发出的请求结果
	counts     Counts
	expiry     time.Time

	onStateChange func(name string, from, to State)
}

// Option 熔断器选项
type Option func(*CircuitBreaker)

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// WithStateChange 注册状态变化回调，回调在持锁状态下执行，不能回调熔断器自身
func WithStateChange(fn func(name string, from, to State)) Option {
	return func(cb *CircuitBreaker) { cb.onStateChange = fn }
}

// New 创建熔断器
func New(name string, config Config, opts ...Option) *CircuitBreaker {
	if config.MaxRequests == 0 {
		config.MaxRequests = 1
	}
	if config.ReadyToTrip == nil {
		config.ReadyToTrip = DefaultConfig().ReadyToTrip
	}
	if config.IsSuccessful == nil {
		config.IsSuccessful = func(err error) bool { return err == nil }
	}

	cb := &CircuitBreaker{
		name:   name,
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	if config.Interval > 0 {
		cb.expiry = cb.now().Add(config.Interval)
	}

	metrics.InitMetrics()
	metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(StateClosed))
	return cb
}

// Name 熔断器名称
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute 在熔断器保护下执行fn
// 熔断时不调用fn，直接返回ErrOpenState
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	generation, err := cb.beforeRequest()
	if err != nil {
		metrics.IncCounterVec(metrics.CircuitBreakerRequests, map[string]string{"name": cb.name, "result": "rejected"})
		return err
	}

	err = fn(ctx)

	// 调用方主动取消不代表下游故障
	success := cb.config.IsSuccessful(err) || errors.Is(err, context.Canceled)
	cb.afterRequest(generation, success)

	result := "success"
	if !success {
		result = "failure"
	}
	metrics.IncCounterVec(metrics.CircuitBreakerRequests, map[string]string{"name": cb.name, "result": result})
	return err
}

// Call Execute的泛型版本，返回fn的结果
func Call[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// State 当前状态（会触发OPEN到HALF_OPEN的超时切换）
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state, _ := cb.currentState(cb.now())
	return state
}

// Counts 当前计数快照
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.counts
}

func (cb *CircuitBreaker) beforeRequest() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state, generation := cb.currentState(cb.now())
	switch {
	case state == StateOpen:
		return generation, ErrOpenState
	case state == StateHalfOpen && cb.counts.Requests >= cb.config.MaxRequests:
		return generation, ErrOpenState
	}

	cb.counts.Requests++
	return generation, nil
}

func (cb *CircuitBreaker) afterRequest(before uint64, success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	state, generation := cb.currentState(now)
	if generation != before {
		return
	}

	if success {
		cb.counts.onSuccess()
		if state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.config.MaxRequests {
			cb.setState(StateClosed, now)
		}
		return
	}

	cb.counts.onFailure()
	switch state {
	case StateClosed:
		if cb.config.ReadyToTrip(cb.counts) {
			cb.setState(StateOpen, now)
		}
	case StateHalfOpen:
		cb.setState(StateOpen, now)
	}
}

func (cb *CircuitBreaker) currentState(now time.Time) (State, uint64) {
	switch cb.state {
	case StateClosed:
		if !cb.expiry.IsZero() && cb.expiry.Before(now) {
			cb.counts = Counts{}
			cb.expiry = now.Add(cb.config.Interval)
		}
	case StateOpen:
		if !cb.expiry.After(now) {
			cb.setState(StateHalfOpen, now)
		}
	}
	return cb.state, cb.generation
}

func (cb *CircuitBreaker) setState(state State, now time.Time) {
	if cb.state == state {
		return
	}

	prev := cb.state
	cb.state = state
	cb.generation++
	cb.counts = Counts{}

	switch state {
	case StateClosed:
		cb.expiry = time.Time{}
		if cb.config.Interval > 0 {
			cb.expiry = now.Add(cb.config.Interval)
		}
	case StateOpen:
		cb.expiry = now.Add(cb.config.Timeout)
	case StateHalfOpen:
		cb.expiry = time.Time{}
	}

	metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": cb.name}, float64(state))
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, prev, state)
	}
}
