package event

import "errors"

// Sentinel errors for the run loop.
var (
	// ErrLoopStopped is returned when work is posted to a stopped loop.
	ErrLoopStopped = errors.New("event loop is stopped")

	// ErrLoopRunning is returned when Run is called on a loop that is already running.
	ErrLoopRunning = errors.New("event loop is already running")
)
