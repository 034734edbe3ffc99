package event

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoopRunPending(t *testing.T) {
	l := NewLoop()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		if err := l.Post(func() { order = append(order, i) }); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}

	if n := l.RunPending(); n != 3 {
		t.Errorf("RunPending = %d, want 3", n)
	}
	for i, v := range order {
		if v != i {
			t.Errorf("order[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestLoopPostFromCallbackRunsNextBatch(t *testing.T) {
	l := NewLoop()
	ran := false
	_ = l.Post(func() {
		_ = l.Post(func() { ran = true })
	})

	l.RunPending()
	if ran {
		t.Fatal("nested post should wait for the next batch")
	}
	l.RunPending()
	if !ran {
		t.Error("nested post did not run")
	}
}

func TestLoopStop(t *testing.T) {
	l := NewLoop()
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	l.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}

	if err := l.Post(func() {}); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("Post after Stop = %v, want ErrLoopStopped", err)
	}
}

func TestLoopRunCancelled(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestLoopTimerFiresOnLoop(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	fired := false
	l.AfterFunc(5*time.Millisecond, func() {
		fired = true
		l.Stop()
	})

	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
	if !fired {
		t.Error("timer callback did not run")
	}
}

func TestLoopTimerStopDropsQueuedExpiry(t *testing.T) {
	l := NewLoop()
	fired := false
	tm := l.AfterFunc(time.Millisecond, func() { fired = true })

	// Let the runtime timer expire and queue its post.
	time.Sleep(20 * time.Millisecond)
	if !tm.Stop() {
		t.Error("Stop should report the timer as armed")
	}
	l.RunPending()

	if fired {
		t.Error("stopped timer fired")
	}
}

func TestLoopTimerResetReportsState(t *testing.T) {
	l := NewLoop()
	tm := l.AfterFunc(time.Hour, func() {})
	if !tm.Reset(time.Hour) {
		t.Error("Reset on armed timer should return true")
	}
	tm.Stop()
	if tm.Reset(time.Hour) {
		t.Error("Reset on stopped timer should return false")
	}
	tm.Stop()
}

func TestLoopTimerResetReusesRuntimeTimer(t *testing.T) {
	l := NewLoop()
	fired := 0
	tm := l.AfterFunc(time.Hour, func() {
		fired++
		l.Stop()
	})
	lt := tm.(*loopTimer)
	first := lt.t
	for i := 0; i < 100; i++ {
		tm.Reset(time.Hour)
	}
	if lt.t != first {
		t.Error("Reset replaced the runtime timer")
	}

	tm.Reset(5 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
	if fired != 1 {
		t.Errorf("fired %d times, want 1", fired)
	}
	if lt.t != first {
		t.Error("firing replaced the runtime timer")
	}
}

func TestLoopTimerResetDropsEarlyExpiry(t *testing.T) {
	l := NewLoop()
	fired := false
	tm := l.AfterFunc(time.Millisecond, func() { fired = true })

	// The old expiry is already queued when the deadline moves out.
	time.Sleep(20 * time.Millisecond)
	if !tm.Reset(time.Hour) {
		t.Error("Reset should report the timer as armed")
	}
	l.RunPending()
	if fired {
		t.Error("timer fired before its new deadline")
	}
	if !tm.Stop() {
		t.Error("timer should still be armed")
	}
}
