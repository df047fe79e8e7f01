package render

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yash0238/quizmaster/go/internal/console"
)

// Log reports notifications and view changes through zerolog
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a log renderer on the global logger
func NewLog() *Log {
	return NewLogWith(log.With().Str("component", "render").Logger())
}

// NewLogWith creates a log renderer on logger
func NewLogWith(logger zerolog.Logger) *Log {
	return &Log{logger: logger}
}

// Publish logs the view version at trace level
func (l *Log) Publish(v console.View) {
	l.logger.Trace().
		Uint64("version", v.Version).
		Str("phase", string(v.Phase)).
		Str("question_id", questionID(v)).
		Str("countdown", v.Countdown.Text).
		Msg("view published")
}

// Notify logs a notification at a level matching its severity
func (l *Log) Notify(n console.Notification) {
	var event *zerolog.Event
	switch n.Severity {
	case console.SeverityWarning:
		event = l.logger.Warn()
	default:
		event = l.logger.Info()
	}
	event.
		Str("severity", string(n.Severity)).
		Time("at", n.At).
		Msg(n.Message)
}

func questionID(v console.View) string {
	if v.Question == nil {
		return ""
	}
	return v.Question.ID.String()
}
