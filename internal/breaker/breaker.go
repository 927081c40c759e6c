package breaker

import (
	"errors"
	"sync"
	"time"
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
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen 熔断器打开，调用被短路，底层未被触发
var ErrOpen = errors.New("breaker: open")

// Options 可选配置
type Options struct {
	// IsFailure 判定哪些错误计入失败。nil 时所有非 nil 错误都计入。
	// 参数校验、容量类错误不应消耗熔断额度，由调用方在此排除。
	IsFailure func(error) bool
	// OnTransition 状态迁移回调（指标上报）
	OnTransition func(from, to State)
	// Now 时钟注入，测试用
	Now func() time.Time
}

// Breaker 渲染链路的熔断器。进程内单实例、显式注入，
// 全部状态读写都走互斥锁下的同一条迁移路径。
type Breaker struct {
	mu               sync.Mutex
	state            State
	failureCount     int
	openedAt         time.Time
	trialInFlight    bool
	failureThreshold int
	timeout          time.Duration

	isFailure    func(error) bool
	onTransition func(from, to State)
	now          func() time.Time
}

// New 构造熔断器。threshold 为连续失败阈值，timeout 为 OPEN 后的冷却时长。
func New(threshold int, timeout time.Duration, opts *Options) *Breaker {
	b := &Breaker{
		state:            StateClosed,
		failureThreshold: threshold,
		timeout:          timeout,
		now:              time.Now,
	}
	if opts != nil {
		if opts.IsFailure != nil {
			b.isFailure = opts.IsFailure
		}
		if opts.OnTransition != nil {
			b.onTransition = opts.OnTransition
		}
		if opts.Now != nil {
			b.now = opts.Now
		}
	}
	return b
}

// Do 执行受保护调用。OPEN 状态直接返回 ErrOpen，不触发 fn；
// HALF_OPEN 状态只放行一个试探调用，其余并发调用同样收到 ErrOpen。
func (b *Breaker) Do(fn func() error) error {
	if err := b.acquire(); err != nil {
		return err
	}

	err := fn()
	b.record(err)
	return err
}

// acquire 入口检查，必要时完成 OPEN→HALF_OPEN 迁移并认领试探名额
func (b *Breaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.timeout {
			b.transition(StateHalfOpen)
			b.trialInFlight = true
			return nil
		}
		return ErrOpen
	case StateHalfOpen:
		if b.trialInFlight {
			return ErrOpen
		}
		b.trialInFlight = true
		return nil
	}
	return nil
}

// record 调用结束后的状态迁移，成功与失败都从这一条路径走
func (b *Breaker) record(err error) {
	failed := err != nil
	if failed && b.isFailure != nil {
		failed = b.isFailure(err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if !failed {
			b.failureCount = 0
			return
		}
		b.failureCount++
		if b.failureCount >= b.failureThreshold {
			b.openedAt = b.now()
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		b.trialInFlight = false
		if failed {
			// 试探失败，重新计时
			b.openedAt = b.now()
			b.transition(StateOpen)
			return
		}
		b.failureCount = 0
		b.transition(StateClosed)
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if b.onTransition != nil && from != to {
		b.onTransition(from, to)
	}
}

// State 当前状态（测试与指标用）
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// FailureCount 当前连续失败计数（测试用）
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}
