package console

import (
	"time"
)

// DefaultBuzzDebounce is how long a pressed buzzer stays disabled while the
// race result is in flight
const DefaultBuzzDebounce = time.Second

// BuzzStatus is the visible state of the buzz control
type BuzzStatus string

const (
	BuzzReady     BuzzStatus = "ready"
	BuzzPending   BuzzStatus = "pending"
	BuzzWon       BuzzStatus = "won"
	BuzzLockedOut BuzzStatus = "locked_out"
)

// Label returns the text printed on the buzzer
func (s BuzzStatus) Label() string {
	switch s {
	case BuzzWon:
		return "YOU BUZZED!"
	case BuzzLockedOut:
		return "LOCKED"
	}
	return "BUZZ!"
}

// BuzzDisplay reflects the server's buzz race result for this console. It
// never decides the race; it only debounces presses and renders the outcome.
type BuzzDisplay struct {
	sched  *Scheduler
	window time.Duration

	locked bool
	won    bool
	winner string
	press  *Timer

	// onSettle is called on the loop when the debounce window closes
	onSettle func()
}

// NewBuzzDisplay creates a display with the given debounce window
func NewBuzzDisplay(sched *Scheduler, window time.Duration, onSettle func()) *BuzzDisplay {
	if window <= 0 {
		window = DefaultBuzzDebounce
	}
	return &BuzzDisplay{sched: sched, window: window, onSettle: onSettle}
}

// Press disables the buzzer for the debounce window. It returns false when
// the buzzer is locked or already waiting.
func (b *BuzzDisplay) Press() bool {
	if b.locked || b.press.Active() {
		return false
	}
	b.press = b.sched.AfterFunc(b.window, func() {
		// Re-enabling is implicit: Enabled stays false while locked.
		if b.onSettle != nil {
			b.onSettle()
		}
	})
	return true
}

// OnRaceResult renders the authoritative race outcome. Every console other
// than the winner is locked out.
func (b *BuzzDisplay) OnRaceResult(winnerID, selfID string) {
	b.press.Stop()
	b.locked = true
	b.winner = winnerID
	b.won = winnerID != "" && winnerID == selfID
}

// OnRejected ends the debounce early after a server rejection. A permanent
// rejection locks the buzzer out for the rest of the question.
func (b *BuzzDisplay) OnRejected(permanent bool) {
	b.press.Stop()
	if permanent && !b.locked {
		b.locked = true
		b.won = false
	}
}

// OnNewQuestion clears the race state unconditionally
func (b *BuzzDisplay) OnNewQuestion() {
	b.press.Stop()
	b.press = nil
	b.locked = false
	b.won = false
	b.winner = ""
}

// Enabled reports whether a press would be accepted
func (b *BuzzDisplay) Enabled() bool {
	return !b.locked && !b.press.Active()
}

// Pending reports whether a press is waiting for its result
func (b *BuzzDisplay) Pending() bool {
	return !b.locked && b.press.Active()
}

// Locked reports whether the race for this question is over
func (b *BuzzDisplay) Locked() bool {
	return b.locked
}

// Won reports whether this console won the race
func (b *BuzzDisplay) Won() bool {
	return b.won
}

// Winner returns the winner id or code from the race result
func (b *BuzzDisplay) Winner() string {
	return b.winner
}

// Status returns the visible buzzer state
func (b *BuzzDisplay) Status() BuzzStatus {
	switch {
	case b.won:
		return BuzzWon
	case b.locked:
		return BuzzLockedOut
	case b.press.Active():
		return BuzzPending
	}
	return BuzzReady
}
