package console

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/yash0238/quizmaster/go/internal/events"
	"github.com/yash0238/quizmaster/go/internal/models"
)

var testStart = time.UnixMilli(1_700_000_000_000)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type sentEvent struct {
	event   events.Type
	payload any
}

type fakeEmitter struct {
	sent []sentEvent
	err  error
}

func (f *fakeEmitter) Emit(event events.Type, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEvent{event: event, payload: payload})
	return nil
}

func (f *fakeEmitter) count(event events.Type) int {
	n := 0
	for _, s := range f.sent {
		if s.event == event {
			n++
		}
	}
	return n
}

func (f *fakeEmitter) last() sentEvent {
	if len(f.sent) == 0 {
		return sentEvent{}
	}
	return f.sent[len(f.sent)-1]
}

type recorder struct {
	views []View
	notes []Notification
}

func (r *recorder) Publish(v View)        { r.views = append(r.views, v) }
func (r *recorder) Notify(n Notification) { r.notes = append(r.notes, n) }

func (r *recorder) last() View {
	if len(r.views) == 0 {
		return View{}
	}
	return r.views[len(r.views)-1]
}

func (r *recorder) messages() []string {
	out := make([]string, 0, len(r.notes))
	for _, n := range r.notes {
		out = append(out, n.Message)
	}
	return out
}

type harness struct {
	clock   fakeClock
	loop    *Loop
	sched   *Scheduler
	engine  *Engine
	emitter *fakeEmitter
	rec     *recorder
}

func newHarness(t *testing.T, role models.Role) *harness {
	t.Helper()

	clock := clockwork.NewFakeClockAt(testStart)
	loop := NewLoop(0)
	sched := NewScheduler(clock, loop)
	emitter := &fakeEmitter{}
	engine := NewEngine(Config{
		Identity: Identity{
			GameID:   "g1",
			Role:     role,
			TeamCode: "T1",
			TeamID:   "self",
		},
	}, sched, emitter)

	rec := &recorder{}
	engine.Subscribe(rec)

	return &harness{
		clock:   clock,
		loop:    loop,
		sched:   sched,
		engine:  engine,
		emitter: emitter,
		rec:     rec,
	}
}

// advance moves the fake clock and runs every timer job it released
func (h *harness) advance(d time.Duration) {
	h.clock.Advance(d)
	drain(h.loop)
}

func drain(loop *Loop) int {
	n := 0
	for loop.Step(100 * time.Millisecond) {
		n++
	}
	return n
}

func (h *harness) deadlineIn(d time.Duration) int64 {
	return h.clock.Now().Add(d).UnixMilli()
}

func (h *harness) apply(t *testing.T, snap models.GameSnapshot) View {
	t.Helper()
	v, err := h.engine.ApplySnapshot(snap)
	require.NoError(t, err)
	return v
}

func (h *harness) receive(t *testing.T, event events.Type, payload any) View {
	t.Helper()
	h.engine.Receive(envelope(t, event, payload))
	return h.rec.last()
}

func envelope(t *testing.T, event events.Type, payload any) events.Envelope {
	t.Helper()
	env := events.Envelope{Event: event, Timestamp: testStart}
	switch p := payload.(type) {
	case nil:
	case string:
		env.Data = json.RawMessage(p)
	default:
		data, err := json.Marshal(p)
		require.NoError(t, err)
		env.Data = data
	}
	return env
}

func mcq(id string, options ...string) *models.Question {
	if len(options) == 0 {
		options = []string{"Paris", "Rome", "Madrid", "Berlin"}
	}
	return &models.Question{ID: models.ID(id), Text: "Question " + id, Type: models.QuestionTypeMCQ, Options: options}
}

func show(round string, q *models.Question) models.GameSnapshot {
	return models.GameSnapshot{
		GameID:         "g1",
		Phase:          models.PhaseShow,
		CurrentRoundID: models.ID(round),
		Question:       q,
	}
}

func lifelineView(t *testing.T, v View, kind models.LifelineKind) LifelineView {
	t.Helper()
	for _, l := range v.Lifelines {
		if l.Kind == kind {
			return l
		}
	}
	require.Failf(t, "lifeline not in view", "kind %s", kind)
	return LifelineView{}
}
