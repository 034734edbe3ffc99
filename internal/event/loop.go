package event

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a cooperative run queue. Posted functions and timer callbacks run
// one at a time on the goroutine that calls Run (or RunPending).
type Loop struct {
	mu      sync.Mutex
	pending []func()

	wake     chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once

	running atomic.Bool
	stopped atomic.Bool
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

// Post queues f to run on the loop goroutine. It never blocks, so it is safe
// to call from the loop goroutine itself.
func (l *Loop) Post(f func()) error {
	if f == nil {
		return nil
	}
	if l.stopped.Load() {
		return ErrLoopStopped
	}

	l.mu.Lock()
	l.pending = append(l.pending, f)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// RunPending runs every function queued before the call and returns how many
// ran. Functions posted while the batch runs wait for the next call.
func (l *Loop) RunPending() int {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, f := range batch {
		f()
	}
	return len(batch)
}

// Run processes posted work until ctx is done or Stop is called.
// It returns ctx.Err() on cancellation and nil after Stop.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	for {
		l.RunPending()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopCh:
			return nil
		case <-l.wake:
		}
	}
}

// Stop makes Run return and rejects further posts. Queued work that has not
// started is dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		close(l.stopCh)
	})
}

// AfterFunc implements Scheduler. The callback runs on the loop goroutine.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{loop: l, f: f}
	t.Reset(d)
	return t
}

// loopTimer forwards runtime timer expiry to its loop. One runtime timer is
// reused across resets; an expiry that reaches the loop before the current
// deadline, or after Stop, is stale and dropped. All fields except loop belong
// to the loop goroutine.
type loopTimer struct {
	loop     *Loop
	f        func()
	t        *time.Timer
	deadline time.Time
	armed    bool
}

func (t *loopTimer) Reset(d time.Duration) bool {
	was := t.armed
	t.armed = true
	t.deadline = time.Now().Add(d)
	if t.t == nil {
		t.t = time.AfterFunc(d, t.expire)
	} else {
		t.t.Reset(d)
	}
	return was
}

func (t *loopTimer) Stop() bool {
	was := t.armed
	t.armed = false
	if t.t != nil {
		t.t.Stop()
	}
	return was
}

// expire runs on the runtime timer goroutine.
func (t *loopTimer) expire() {
	_ = t.loop.Post(t.fire)
}

func (t *loopTimer) fire() {
	if !t.armed || time.Now().Before(t.deadline) {
		return
	}
	t.armed = false
	t.f()
}
