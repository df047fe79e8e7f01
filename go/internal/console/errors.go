package console

import (
	"errors"
	"strings"
)

var (
	// ErrStaleEvent marks a targeted event for a question the console has
	// already moved past. Stale events are dropped without a notification.
	ErrStaleEvent = errors.New("stale event")

	// ErrMalformedPayload marks an event with missing or wrong-shaped fields
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrControlDisabled is returned for actions on a disabled control
	ErrControlDisabled = errors.New("control disabled")
)

type rejectionTarget int

const (
	rejectsUnknown rejectionTarget = iota
	rejectsBuzz
	rejectsFiftyFifty
)

// rejection is what the console reads out of a server error message
type rejection struct {
	target    rejectionTarget
	permanent bool
}

// classifyRejection maps server error text onto the control that caused it.
// Error events carry no correlation id, so the message is all there is.
func classifyRejection(message string) rejection {
	msg := strings.ToLower(message)

	switch {
	case strings.Contains(msg, "already used"):
		return rejection{target: rejectsFiftyFifty, permanent: true}
	case strings.Contains(msg, "buzzed first"):
		return rejection{target: rejectsBuzz, permanent: true}
	case strings.Contains(msg, "buzz"):
		return rejection{target: rejectsBuzz}
	case strings.Contains(msg, "50-50"), strings.Contains(msg, "fifty"), strings.Contains(msg, "lifeline"):
		return rejection{target: rejectsFiftyFifty}
	}
	return rejection{target: rejectsUnknown}
}
