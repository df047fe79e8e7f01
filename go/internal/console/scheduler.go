package console

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler arms one-shot timers whose callbacks run on the Loop.
// In production the clock is clockwork.NewRealClock(); tests use a FakeClock.
type Scheduler struct {
	clock clockwork.Clock
	loop  *Loop
}

// NewScheduler creates a scheduler posting expirations to loop
func NewScheduler(clock clockwork.Clock, loop *Loop) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{clock: clock, loop: loop}
}

// Now returns the scheduler's current time
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Timer is a cancellable one-shot timer. Its state is only read and written
// on the loop goroutine.
type Timer struct {
	timer clockwork.Timer
	done  bool
}

// AfterFunc runs fn on the loop once d has elapsed, unless the timer is
// stopped first. A callback already queued when Stop is called is dropped.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	t.timer = s.clock.AfterFunc(d, func() {
		s.loop.Post(func() {
			if t.done {
				return
			}
			t.done = true
			fn()
		})
	})
	return t
}

// Stop cancels the timer. Stopping a nil or fired timer is a no-op.
func (t *Timer) Stop() {
	if t == nil || t.done {
		return
	}
	t.done = true
	t.timer.Stop()
}

// Active reports whether the timer is still waiting to fire
func (t *Timer) Active() bool {
	return t != nil && !t.done
}
