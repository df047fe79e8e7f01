package console

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yash0238/quizmaster/go/internal/models"
)

// DefaultLifelineTimeout bounds how long a lifeline request stays pending
const DefaultLifelineTimeout = 4 * time.Second

// LifelineTracker records which lifelines each round has consumed and which
// requests are still waiting for the server. Usage is keyed by round id and
// is never cleared by question changes.
type LifelineTracker struct {
	sched   *Scheduler
	timeout time.Duration

	used    map[models.ID]map[models.LifelineKind]struct{}
	pending map[models.LifelineKind]*pendingLifeline

	// onExpire is called on the loop when a pending request times out
	onExpire func(round models.ID, kind models.LifelineKind)
}

type pendingLifeline struct {
	round models.ID
	timer *Timer
}

// NewLifelineTracker creates a tracker whose pending requests roll back
// after timeout
func NewLifelineTracker(sched *Scheduler, timeout time.Duration, onExpire func(models.ID, models.LifelineKind)) *LifelineTracker {
	if timeout <= 0 {
		timeout = DefaultLifelineTimeout
	}
	return &LifelineTracker{
		sched:    sched,
		timeout:  timeout,
		used:     make(map[models.ID]map[models.LifelineKind]struct{}),
		pending:  make(map[models.LifelineKind]*pendingLifeline),
		onExpire: onExpire,
	}
}

// MarkUsed records kind as consumed for round. A pending request for the
// same round is settled by it.
func (t *LifelineTracker) MarkUsed(round models.ID, kind models.LifelineKind) {
	kinds, ok := t.used[round]
	if !ok {
		kinds = make(map[models.LifelineKind]struct{})
		t.used[round] = kinds
	}
	kinds[kind] = struct{}{}

	if p, ok := t.pending[kind]; ok && p.round == round {
		p.timer.Stop()
		delete(t.pending, kind)
	}
}

// IsUsed reports whether kind has been consumed in round
func (t *LifelineTracker) IsUsed(round models.ID, kind models.LifelineKind) bool {
	_, ok := t.used[round][kind]
	return ok
}

// Reset forgets the usage of one round. Normal play never calls it.
func (t *LifelineTracker) Reset(round models.ID) {
	delete(t.used, round)
}

// Begin marks a request for kind as pending in round and arms the rollback
// timer, replacing any earlier timer for the same kind. It refuses kinds
// already used in round.
func (t *LifelineTracker) Begin(round models.ID, kind models.LifelineKind) bool {
	if t.IsUsed(round, kind) {
		return false
	}

	// Cancel any earlier request for this kind first
	t.cancelPending(kind)

	p := &pendingLifeline{round: round}
	p.timer = t.sched.AfterFunc(t.timeout, func() { t.expire(kind, p) })
	t.pending[kind] = p

	log.Debug().
		Str("round_id", round.String()).
		Str("lifeline", string(kind)).
		Dur("timeout", t.timeout).
		Msg("lifeline request pending")
	return true
}

// Confirm settles a pending request as granted
func (t *LifelineTracker) Confirm(round models.ID, kind models.LifelineKind) {
	t.MarkUsed(round, kind)
}

// Reject drops a pending request for kind in round so the control can be
// used again. It reports whether a request was pending.
func (t *LifelineTracker) Reject(round models.ID, kind models.LifelineKind) bool {
	p, ok := t.pending[kind]
	if !ok || p.round != round {
		return false
	}
	t.cancelPending(kind)
	return true
}

// IsPending reports whether a request for kind is outstanding in round
func (t *LifelineTracker) IsPending(round models.ID, kind models.LifelineKind) bool {
	p, ok := t.pending[kind]
	return ok && p.round == round
}

func (t *LifelineTracker) cancelPending(kind models.LifelineKind) {
	if p, ok := t.pending[kind]; ok {
		p.timer.Stop()
		delete(t.pending, kind)
	}
}

// expire runs on the loop when a request got no answer in time
func (t *LifelineTracker) expire(kind models.LifelineKind, p *pendingLifeline) {
	if t.pending[kind] != p {
		return
	}
	delete(t.pending, kind)

	if t.IsUsed(p.round, kind) {
		return
	}

	log.Info().
		Str("round_id", p.round.String()).
		Str("lifeline", string(kind)).
		Msg("lifeline request timed out, rolling back")

	if t.onExpire != nil {
		t.onExpire(p.round, kind)
	}
}
