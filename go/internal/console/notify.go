package console

import "time"

// Severity is the tone of a notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)

// Notification is a transient message for the player. Rendering it as a
// toast is up to the subscriber.
type Notification struct {
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// Subscriber receives everything a render adapter needs. Both methods are
// called on the loop goroutine and must not block.
type Subscriber interface {
	Publish(v View)
	Notify(n Notification)
}
