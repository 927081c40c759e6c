package breaker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

// fakeClock 手动推进的时钟
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := New(3, time.Minute, nil)

	for i := 0; i < 2; i++ {
		_ = b.Do(func() error { return errBoom })
		if b.State() != StateClosed {
			t.Fatalf("breaker opened after %d failures, threshold is 3", i+1)
		}
	}

	_ = b.Do(func() error { return errBoom })
	if b.State() != StateOpen {
		t.Fatalf("expected OPEN after 3 consecutive failures, got %v", b.State())
	}
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := New(3, time.Minute, nil)

	_ = b.Do(func() error { return errBoom })
	_ = b.Do(func() error { return errBoom })
	_ = b.Do(func() error { return nil })

	if got := b.FailureCount(); got != 0 {
		t.Fatalf("failure count = %d after success, want 0", got)
	}

	// 重置后需要再次连续失败满阈值才会打开
	_ = b.Do(func() error { return errBoom })
	_ = b.Do(func() error { return errBoom })
	if b.State() != StateClosed {
		t.Fatalf("breaker opened before reaching threshold after reset")
	}
}

func TestBreakerShortCircuitsWithoutInvoking(t *testing.T) {
	b := New(1, time.Minute, nil)
	_ = b.Do(func() error { return errBoom })

	var calls int32
	err := b.Do(func() error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("protected call was invoked while breaker was open")
	}
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	clock := newFakeClock()
	b := New(1, time.Minute, &Options{Now: clock.Now})

	_ = b.Do(func() error { return errBoom })
	if b.State() != StateOpen {
		t.Fatalf("expected OPEN, got %v", b.State())
	}

	// 冷却期未到，仍然短路
	clock.Advance(30 * time.Second)
	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen before timeout elapsed, got %v", err)
	}

	// 冷却期已过，放行一次试探，成功后闭合
	clock.Advance(31 * time.Second)
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("trial call failed: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected CLOSED after successful trial, got %v", b.State())
	}
	if b.FailureCount() != 0 {
		t.Fatalf("failure count = %d after recovery, want 0", b.FailureCount())
	}
}

func TestBreakerTrialFailureReopens(t *testing.T) {
	clock := newFakeClock()
	b := New(1, time.Minute, &Options{Now: clock.Now})

	_ = b.Do(func() error { return errBoom })
	clock.Advance(2 * time.Minute)

	// 试探失败，重新打开并重新计时
	_ = b.Do(func() error { return errBoom })
	if b.State() != StateOpen {
		t.Fatalf("expected OPEN after failed trial, got %v", b.State())
	}

	// 新的冷却期从试探失败时刻起算
	clock.Advance(30 * time.Second)
	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen during fresh cooldown, got %v", err)
	}
}

func TestBreakerExactlyOneTrial(t *testing.T) {
	clock := newFakeClock()
	b := New(1, time.Minute, &Options{Now: clock.Now})

	_ = b.Do(func() error { return errBoom })
	clock.Advance(2 * time.Minute)

	// 并发试探：只有一个调用真正执行，其余收到 ErrOpen
	const n = 20
	var invoked int32
	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Do(func() error {
				atomic.AddInt32(&invoked, 1)
				<-release
				return nil
			})
		}()
	}

	// 等试探调用进入执行体
	for atomic.LoadInt32(&invoked) == 0 {
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&invoked); got != 1 {
		t.Fatalf("half-open let %d calls through, want exactly 1", got)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected CLOSED after successful trial, got %v", b.State())
	}
}

func TestBreakerIsFailureFilter(t *testing.T) {
	badInput := errors.New("bad input")
	b := New(1, time.Minute, &Options{
		IsFailure: func(err error) bool { return !errors.Is(err, badInput) },
	})

	// 被过滤的错误不消耗熔断额度
	for i := 0; i < 5; i++ {
		_ = b.Do(func() error { return badInput })
	}
	if b.State() != StateClosed {
		t.Fatal("filtered errors must not trip the breaker")
	}

	_ = b.Do(func() error { return errBoom })
	if b.State() != StateOpen {
		t.Fatal("unfiltered error should trip the breaker at threshold 1")
	}
}

func TestBreakerOnTransition(t *testing.T) {
	clock := newFakeClock()
	var transitions []string
	b := New(1, time.Minute, &Options{
		Now: clock.Now,
		OnTransition: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = b.Do(func() error { return errBoom })
	clock.Advance(2 * time.Minute)
	_ = b.Do(func() error { return nil })

	want := []string{"closed->open", "open->half_open", "half_open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}
