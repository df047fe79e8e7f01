// Package render projects console views onto simple local outputs.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"github.com/yash0238/quizmaster/go/internal/console"
	"github.com/yash0238/quizmaster/go/internal/models"
)

// OptionPlaceholder is printed in every option slot while no question is up
const OptionPlaceholder = "Not available"

// NoActiveTeam is shown on the host console before any team holds the floor
const NoActiveTeam = "No team selected"

// Text writes a plain-text frame for every published view. Frames with the
// same content as the previous one are skipped, so countdown ticks that do
// not change the display produce no output.
type Text struct {
	mu   deadlock.Mutex
	w    io.Writer
	last string
}

// NewText creates a text renderer writing to w
func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

// Publish renders v
func (t *Text) Publish(v console.View) {
	frame := Frame(v)

	t.mu.Lock()
	defer t.mu.Unlock()
	if frame == t.last {
		return
	}
	t.last = frame
	if _, err := io.WriteString(t.w, frame); err != nil {
		log.Error().Err(err).Msg("failed to write text frame")
	}
}

// Notify prints a notification line
func (t *Text) Notify(n console.Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintf(t.w, "[%s] %s\n", n.Severity, n.Message); err != nil {
		log.Error().Err(err).Msg("failed to write notification")
	}
}

// Frame formats v as the console prints it
func Frame(v console.View) string {
	var b strings.Builder

	status := "connected"
	if !v.Connected {
		status = "offline"
	}
	fmt.Fprintf(&b, "== %s console | game %s", v.Role, v.GameID)
	if v.TeamCode != "" {
		fmt.Fprintf(&b, " | team %s", v.TeamCode)
	}
	fmt.Fprintf(&b, " | %s ==\n", status)

	phase := string(v.Phase)
	if phase == "" {
		phase = "-"
	}
	fmt.Fprintf(&b, "Phase: %s  Round: %s  Time: %s (%s)\n", phase, orDash(v.RoundID.String()), v.Countdown.Text, v.Countdown.Urgency)

	if v.Role == models.RoleHost {
		team := v.ActiveTeam
		if team == "" {
			team = NoActiveTeam
		}
		fmt.Fprintf(&b, "Active Team: %s\n", team)
	}

	if v.Question == nil {
		fmt.Fprintf(&b, "%s\n", v.Placeholder)
		for i := 0; i < models.MaxOptions; i++ {
			fmt.Fprintf(&b, "  %s\n", console.OptionLabel(i, OptionPlaceholder))
		}
	} else {
		fmt.Fprintf(&b, "Q: %s\n", v.Question.Text)
		for _, o := range v.Question.Options {
			marker := " "
			switch {
			case o.Masked:
				marker = "x"
			case o.Selected:
				marker = ">"
			}
			fmt.Fprintf(&b, "%s %s\n", marker, o.Label)
		}
	}

	if v.Buzz != nil {
		fmt.Fprintf(&b, "Buzzer: [%s]%s\n", v.Buzz.Label, disabled(v.Buzz.Enabled))
	}
	if len(v.Lifelines) > 0 {
		parts := make([]string, 0, len(v.Lifelines))
		for _, l := range v.Lifelines {
			state := "ready"
			switch {
			case l.Used:
				state = "used"
			case l.Pending:
				state = "pending"
			case !l.Enabled:
				state = "off"
			}
			parts = append(parts, fmt.Sprintf("%s (%s)", l.Label, state))
		}
		fmt.Fprintf(&b, "Lifelines: %s\n", strings.Join(parts, ", "))
	}
	return b.String()
}

func disabled(enabled bool) string {
	if enabled {
		return ""
	}
	return " disabled"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
