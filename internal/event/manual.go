package event

import "time"

// ManualScheduler is a Scheduler driven by an explicit clock. Timers fire only
// inside Advance, on the goroutine that calls it. It is meant for tests.
type ManualScheduler struct {
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

// NewManualScheduler returns a scheduler whose clock starts at the Unix epoch.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{now: time.Unix(0, 0)}
}

// Now returns the simulated time.
func (s *ManualScheduler) Now() time.Time {
	return s.now
}

// AfterFunc implements Scheduler.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &manualTimer{sched: s, f: f}
	s.timers = append(s.timers, t)
	t.Reset(d)
	return t
}

// Advance moves the clock forward by d, firing every timer whose deadline is
// reached in deadline order. Timers armed by a callback fire in the same call
// if their deadline also falls inside the window. It returns the number of
// callbacks run.
func (s *ManualScheduler) Advance(d time.Duration) int {
	target := s.now.Add(d)
	fired := 0
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		s.now = next.deadline
		next.armed = false
		next.f()
		fired++
	}
	s.now = target
	return fired
}

// Pending returns the number of armed timers.
func (s *ManualScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if t.armed {
			n++
		}
	}
	return n
}

func (s *ManualScheduler) nextDue(limit time.Time) *manualTimer {
	var best *manualTimer
	for _, t := range s.timers {
		if !t.armed || t.deadline.After(limit) {
			continue
		}
		if best == nil || t.deadline.Before(best.deadline) ||
			(t.deadline.Equal(best.deadline) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

type manualTimer struct {
	sched    *ManualScheduler
	f        func()
	deadline time.Time
	seq      uint64
	armed    bool
}

func (t *manualTimer) Reset(d time.Duration) bool {
	was := t.armed
	t.sched.seq++
	t.seq = t.sched.seq
	t.deadline = t.sched.now.Add(d)
	t.armed = true
	return was
}

func (t *manualTimer) Stop() bool {
	was := t.armed
	t.armed = false
	return was
}
