// Package event provides the single-threaded scheduling primitives used by
// the text view.
//
// Everything that touches a view (painting, document edit handlers, the
// display cache's idle eviction) runs on one goroutine. The Loop type is that
// goroutine's run queue: other goroutines hand work to it with Post, and
// timers created with Loop.AfterFunc fire on it rather than on the runtime's
// timer goroutine.
//
// # Timers
//
// Components that need a deadline depend on the Scheduler interface instead of
// the time package so that tests can drive them deterministically:
//
//	sched := event.NewManualScheduler()
//	t := sched.AfterFunc(20*time.Second, flush)
//	t.Reset(20 * time.Second) // slide the deadline
//	sched.Advance(21 * time.Second) // flush runs here, on the test goroutine
//
// # Basic Usage
//
//	loop := event.NewLoop()
//	go func() {
//	    for ev := range input {
//	        _ = loop.Post(func() { handle(ev) })
//	    }
//	}()
//	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    return err
//	}
//
// # Thread Safety
//
// Post and Stop are safe to call from any goroutine. Timers and the callbacks
// they run belong to the loop goroutine.
package event
