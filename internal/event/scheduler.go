package event

import "time"

// Scheduler creates timers whose callbacks run on the caller's event loop.
type Scheduler interface {
	// AfterFunc arms a timer that calls f once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle to a timer created by a Scheduler.
type Timer interface {
	// Reset moves the deadline to d from now and re-arms a fired or stopped
	// timer. It reports whether the timer was armed before the call.
	Reset(d time.Duration) bool

	// Stop disarms the timer. It reports whether the timer was armed.
	Stop() bool
}
