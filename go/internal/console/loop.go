package console

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Loop serialises every mutation of a console session onto one goroutine.
// Channel events, render adapter actions and timer callbacks are all posted
// here as jobs; nothing touches the Engine from anywhere else.
type Loop struct {
	jobs     chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a loop whose queue holds up to buffer pending jobs
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 256
	}
	return &Loop{
		jobs: make(chan func(), buffer),
		done: make(chan struct{}),
	}
}

// Post queues a job. It blocks while the queue is full and returns false
// once the loop has stopped.
func (l *Loop) Post(job func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.jobs <- job:
		return true
	case <-l.done:
		return false
	}
}

// Run executes jobs until ctx is cancelled
func (l *Loop) Run(ctx context.Context) {
	log.Info().Msg("console loop started")
	defer l.stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("console loop shutting down")
			return
		case job := <-l.jobs:
			job()
		}
	}
}

// Step runs a single queued job, waiting at most timeout for one to arrive.
// It is the manual alternative to Run for callers that drive the loop
// themselves.
func (l *Loop) Step(timeout time.Duration) bool {
	select {
	case job := <-l.jobs:
		job()
		return true
	case <-time.After(timeout):
		return false
	}
}

func (l *Loop) stop() {
	l.stopOnce.Do(func() { close(l.done) })
}
