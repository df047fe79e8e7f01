package console

import (
	"fmt"
	"time"
)

// DefaultTick is the countdown refresh resolution
const DefaultTick = 100 * time.Millisecond

// Countdown thresholds: warning strictly below 30s, urgent from 10s down
const (
	warningBelow = 30 * time.Second
	urgentFrom   = 10 * time.Second
)

// CountdownPlaceholder is shown when no timer is running
const CountdownPlaceholder = "--:--"

// Urgency is the visual state of the countdown
type Urgency string

const (
	UrgencyNeutral Urgency = "neutral"
	UrgencyWarning Urgency = "warning"
	UrgencyUrgent  Urgency = "urgent"
)

// CountdownDisplay is what the countdown shows
type CountdownDisplay struct {
	Text    string  `json:"text"`
	Urgency Urgency `json:"urgency"`
	Running bool    `json:"running"`
}

// FormatRemaining renders the time left until deadline as seen at now.
// Seconds are rounded up, so 00:00 only appears once the deadline passed.
func FormatRemaining(deadline, now time.Time) CountdownDisplay {
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return CountdownDisplay{Text: "00:00", Urgency: UrgencyUrgent}
	}

	secs := int64((remaining + time.Second - 1) / time.Second)
	d := CountdownDisplay{
		Text:    fmt.Sprintf("%02d:%02d", secs/60, secs%60),
		Urgency: UrgencyNeutral,
		Running: true,
	}
	switch {
	case remaining <= urgentFrom:
		d.Urgency = UrgencyUrgent
	case remaining < warningBelow:
		d.Urgency = UrgencyWarning
	}
	return d
}

// Countdown renders a server-declared deadline. Each tick recomputes the
// remaining time from the absolute deadline, so the display cannot drift.
// At most one tick is armed at any time.
type Countdown struct {
	sched *Scheduler
	tick  time.Duration

	deadline time.Time
	timer    *Timer
	display  CountdownDisplay

	// onChange is called on the loop whenever the display changes
	onChange func(CountdownDisplay)
}

// NewCountdown creates an idle countdown
func NewCountdown(sched *Scheduler, tick time.Duration, onChange func(CountdownDisplay)) *Countdown {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Countdown{
		sched:    sched,
		tick:     tick,
		display:  CountdownDisplay{Text: CountdownPlaceholder, Urgency: UrgencyNeutral},
		onChange: onChange,
	}
}

// Sync replaces the running countdown with one for deadlineEpochMs.
// A value of zero or less stops the countdown and shows the placeholder.
func (c *Countdown) Sync(deadlineEpochMs int64) {
	c.timer.Stop()
	c.timer = nil

	if deadlineEpochMs <= 0 {
		c.deadline = time.Time{}
		c.set(CountdownDisplay{Text: CountdownPlaceholder, Urgency: UrgencyNeutral})
		return
	}

	c.deadline = time.UnixMilli(deadlineEpochMs)
	c.render()
}

// Display returns the current display
func (c *Countdown) Display() CountdownDisplay {
	return c.display
}

// Running reports whether a tick is armed
func (c *Countdown) Running() bool {
	return c.timer.Active()
}

func (c *Countdown) render() {
	d := FormatRemaining(c.deadline, c.sched.Now())
	c.set(d)
	if !d.Running {
		// Terminal for this deadline; only a new Sync restarts it.
		c.timer = nil
		return
	}
	c.timer = c.sched.AfterFunc(c.tick, c.render)
}

func (c *Countdown) set(d CountdownDisplay) {
	if d == c.display {
		return
	}
	c.display = d
	if c.onChange != nil {
		c.onChange(d)
	}
}
