package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errSearch = errors.New("search unavailable")

// fakeClock 手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(t *testing.T, maxRequests uint32) (*CircuitBreaker, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := New("test-"+t.Name(), Config{
		MaxRequests: maxRequests,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}, WithClock(clock.Now))
	return cb, clock
}

func fail(context.Context) error    { return errSearch }
func succeed(context.Context) error { return nil }

// TestCircuitBreaker_ClosedState 成功请求保持CLOSED
func TestCircuitBreaker_ClosedState(t *testing.T) {
	cb, _ := newTestBreaker(t, 1)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := cb.Execute(ctx, succeed); err != nil {
			t.Fatalf("期望成功，实际失败: %v", err)
		}
	}

	if cb.State() != StateClosed {
		t.Errorf("期望状态为CLOSED，实际%s", cb.State())
	}
	if cb.Counts().TotalSuccesses != 10 {
		t.Errorf("期望成功10次，实际%d次", cb.Counts().TotalSuccesses)
	}
}

// TestCircuitBreaker_Trip 连续失败后熔断，熔断期间不调用fn
func TestCircuitBreaker_Trip(t *testing.T) {
	cb, _ := newTestBreaker(t, 1)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cb.Execute(ctx, fail); !errors.Is(err, errSearch) {
			t.Fatalf("期望返回下游错误，实际%v", err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("期望状态为OPEN，实际%s", cb.State())
	}

	called := false
	err := cb.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrOpenState) {
		t.Errorf("期望ErrOpenState，实际%v", err)
	}
	if called {
		t.Error("熔断期间不应调用fn")
	}
}

// TestCircuitBreaker_HalfOpenRecover 超时后半开，连续成功后恢复
func TestCircuitBreaker_HalfOpenRecover(t *testing.T) {
	cb, clock := newTestBreaker(t, 2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, fail)
	}
	clock.Advance(31 * time.Second)

	if cb.State() != StateHalfOpen {
		t.Fatalf("期望状态为HALF_OPEN，实际%s", cb.State())
	}

	if err := cb.Execute(ctx, succeed); err != nil {
		t.Fatalf("半开探测失败: %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("一次成功不足以恢复，期望HALF_OPEN，实际%s", cb.State())
	}
	if err := cb.Execute(ctx, succeed); err != nil {
		t.Fatalf("半开探测失败: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("期望状态为CLOSED，实际%s", cb.State())
	}
}

// TestCircuitBreaker_HalfOpenFailure 半开状态失败立即回到OPEN
func TestCircuitBreaker_HalfOpenFailure(t *testing.T) {
	cb, clock := newTestBreaker(t, 1)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, fail)
	}
	clock.Advance(31 * time.Second)

	_ = cb.Execute(ctx, fail)
	if cb.State() != StateOpen {
		t.Errorf("期望状态为OPEN，实际%s", cb.State())
	}
}

// TestCircuitBreaker_IntervalReset 统计窗口到期后清零
func TestCircuitBreaker_IntervalReset(t *testing.T) {
	cb, clock := newTestBreaker(t, 1)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	clock.Advance(11 * time.Second)
	_ = cb.Execute(ctx, fail)

	if cb.State() != StateClosed {
		t.Errorf("窗口清零后不应熔断，实际%s", cb.State())
	}
	if cb.Counts().ConsecutiveFailures != 1 {
		t.Errorf("期望连续失败1次，实际%d次", cb.Counts().ConsecutiveFailures)
	}
}

// TestCircuitBreaker_IsSuccessful 业务错误不计入失败
func TestCircuitBreaker_IsSuccessful(t *testing.T) {
	errBadQuery := errors.New("bad query")
	cb := New("test-"+t.Name(), Config{
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errBadQuery)
		},
	})

	_ = cb.Execute(context.Background(), func(context.Context) error { return errBadQuery })
	if cb.State() != StateClosed {
		t.Errorf("业务错误不应触发熔断，实际%s", cb.State())
	}
}

// TestCall 泛型版本返回结果
func TestCall(t *testing.T) {
	cb, _ := newTestBreaker(t, 1)

	got, err := Call(context.Background(), cb, func(context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Errorf("期望42，实际%d, err=%v", got, err)
	}
}

// TestStateChangeCallback 状态变化回调
func TestStateChangeCallback(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	var transitions []string
	cb := New("test-"+t.Name(), Config{
		Timeout:     time.Second,
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
	}, WithClock(clock.Now), WithStateChange(func(_ string, from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}))

	_ = cb.Execute(context.Background(), fail)
	clock.Advance(2 * time.Second)
	_ = cb.Execute(context.Background(), succeed)

	want := []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}
	if len(transitions) != len(want) {
		t.Fatalf("期望%v，实际%v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("第%d次切换期望%s，实际%s", i, want[i], transitions[i])
		}
	}
}

// TestDefaultConfig_FailureRateTrips 交替失败不会连续5次，但失败率达到50%后熔断
func TestDefaultConfig_FailureRateTrips(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := New("test-"+t.Name(), DefaultConfig(), WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 19; i++ {
		fn := succeed
		if i%2 == 1 {
			fn = fail
		}
		_ = cb.Execute(ctx, fn)
		if cb.State() != StateClosed {
			t.Fatalf("第%d次请求后不应熔断，失败率%.2f", i+1, cb.Counts().FailureRate())
		}
	}

	_ = cb.Execute(ctx, fail)
	if cb.State() != StateOpen {
		t.Fatalf("期望状态为OPEN，实际%s", cb.State())
	}
}

func TestCounts_FailureRate(t *testing.T) {
	if rate := (Counts{}).FailureRate(); rate != 0 {
		t.Errorf("没有请求时失败率应为0，实际%.2f", rate)
	}
	if rate := (Counts{Requests: 8, TotalFailures: 2}).FailureRate(); rate != 0.25 {
		t.Errorf("期望0.25，实际%.2f", rate)
	}
}
