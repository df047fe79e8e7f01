package console

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yash0238/quizmaster/go/internal/events"
	"github.com/yash0238/quizmaster/go/internal/models"
)

// noSelection marks that no option is highlighted
const noSelection = -1

// Identity is who this console is within a game
type Identity struct {
	GameID   models.ID
	Role     models.Role
	TeamCode string
	TeamID   models.ID
}

// Config holds the engine's timing knobs
type Config struct {
	Identity        Identity
	Tick            time.Duration
	LifelineTimeout time.Duration
	BuzzDebounce    time.Duration
}

// Emitter sends a request over the event channel. Sends are fire-and-forget:
// outcomes come back later as separate events.
type Emitter interface {
	Emit(event events.Type, payload any) error
}

// ClientState is the console's copy of server truth plus purely local state
type ClientState struct {
	Snapshot   *models.GameSnapshot
	Connected  bool
	Selected   int
	ActiveTeam string
}

// Engine reconciles pushed snapshots and targeted events into a consistent
// console state and gates the interactive controls. It must only be used
// from the Loop goroutine.
type Engine struct {
	id      Identity
	sched   *Scheduler
	emitter Emitter
	subs    []Subscriber

	state   ClientState
	version uint64

	lifelines *LifelineTracker
	masks     *MaskStore
	buzz      *BuzzDisplay
	countdown *Countdown
}

// NewEngine creates the engine for one console session
func NewEngine(cfg Config, sched *Scheduler, emitter Emitter) *Engine {
	e := &Engine{
		id:      cfg.Identity,
		sched:   sched,
		emitter: emitter,
		state:   ClientState{Selected: noSelection},
		masks:   NewMaskStore(),
	}
	e.lifelines = NewLifelineTracker(sched, cfg.LifelineTimeout, e.onLifelineExpired)
	e.buzz = NewBuzzDisplay(sched, cfg.BuzzDebounce, func() { e.publish() })
	e.countdown = NewCountdown(sched, cfg.Tick, func(CountdownDisplay) { e.publish() })
	return e
}

// Subscribe registers a render adapter
func (e *Engine) Subscribe(s Subscriber) {
	e.subs = append(e.subs, s)
}

// State returns a copy of the client state
func (e *Engine) State() ClientState {
	return e.state
}

// Lifelines returns the round-scoped lifeline tracker
func (e *Engine) Lifelines() *LifelineTracker {
	return e.lifelines
}

// Masks returns the option mask store
func (e *Engine) Masks() *MaskStore {
	return e.masks
}

// BuzzDisplay returns the buzz race display
func (e *Engine) BuzzDisplay() *BuzzDisplay {
	return e.buzz
}

// Countdown returns the countdown renderer
func (e *Engine) Countdown() *Countdown {
	return e.countdown
}

// Render publishes the current view without changing any state
func (e *Engine) Render() View {
	return e.publish()
}

// Receive applies one event from the channel and publishes the result.
// No event is fatal: failures are logged and, where the player should know,
// surfaced as a notification.
func (e *Engine) Receive(env events.Envelope) {
	err := e.handle(env)
	switch {
	case err == nil:
	case errors.Is(err, events.ErrUnknownEvent):
		log.Debug().Str("event", string(env.Event)).Msg("ignoring unknown event")
		return
	case errors.Is(err, ErrStaleEvent):
		log.Debug().Err(err).Str("event", string(env.Event)).Msg("ignoring stale event")
	case errors.Is(err, ErrMalformedPayload):
		log.Warn().Err(err).Str("event", string(env.Event)).Msg("malformed event payload")
		e.notify(SeverityWarning, malformedMessage(env.Event))
	default:
		log.Error().Err(err).Str("event", string(env.Event)).Msg("failed to handle event")
	}
	e.publish()
}

func (e *Engine) handle(env events.Envelope) error {
	payload, err := events.ParsePayload(env)
	if err != nil {
		if errors.Is(err, events.ErrUnknownEvent) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, env.Event, err)
	}

	switch env.Event {
	case events.TypeConnect:
		return e.onConnect()

	case events.TypeDisconnect:
		e.state.Connected = false
		e.notify(SeverityWarning, "Connection lost, reconnecting")
		return nil

	case events.TypeJoined:
		return e.emit(events.TypeStateRequest, events.StateRequest{GameID: e.id.GameID})

	case events.TypeStateUpdate:
		return e.applySnapshot(payload.(models.GameSnapshot))

	case events.TypeBuzzLock:
		return e.onBuzzLock(payload.(events.BuzzLockPayload))

	case events.TypeMaskApplied:
		return e.onMaskApplied(payload.(events.MaskAppliedPayload))

	case events.TypeError:
		e.onRejected(payload.(events.ErrorPayload))
		return nil

	case events.TypeToast:
		p := payload.(events.ToastPayload)
		if p.Msg == "" {
			return fmt.Errorf("%w: empty toast", ErrMalformedPayload)
		}
		e.notify(SeverityInfo, p.Msg)
		return nil
	}
	return nil
}

// ApplySnapshot reconciles a full snapshot and returns the resulting view
func (e *Engine) ApplySnapshot(snap models.GameSnapshot) (View, error) {
	err := e.applySnapshot(snap)
	return e.publish(), err
}

func (e *Engine) applySnapshot(snap models.GameSnapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	if !e.id.GameID.IsZero() && !snap.GameID.IsZero() && snap.GameID != e.id.GameID {
		return fmt.Errorf("%w: snapshot for game %s", ErrStaleEvent, snap.GameID)
	}
	if !snap.Phase.Known() {
		log.Warn().Str("phase", string(snap.Phase)).Msg("unknown game phase, controls disabled")
	}

	prev := e.state.Snapshot
	questionChanged := prev.QuestionID() != snap.QuestionID()
	roundChanged := prev == nil || prev.CurrentRoundID != snap.CurrentRoundID

	// Question-scoped state goes before anything is re-rendered
	if questionChanged {
		e.masks.Reset(snap.QuestionID())
		e.buzz.OnNewQuestion()
		e.state.Selected = noSelection
	}
	if roundChanged {
		// Usage for the previous round is kept; the new round has no entry yet.
		log.Debug().
			Str("round_id", snap.CurrentRoundID.String()).
			Msg("round changed")
	}

	e.state.Snapshot = &snap
	e.state.ActiveTeam = snap.ActiveTeamLabel()
	e.countdown.Sync(snap.DeadlineEpochMs)

	log.Debug().
		Str("phase", string(snap.Phase)).
		Str("round_id", snap.CurrentRoundID.String()).
		Str("question_id", snap.QuestionID().String()).
		Bool("question_changed", questionChanged).
		Bool("round_changed", roundChanged).
		Msg("snapshot applied")
	return nil
}

func validateSnapshot(snap models.GameSnapshot) error {
	q := snap.Question
	if q == nil {
		return nil
	}
	if q.ID.IsZero() {
		return fmt.Errorf("%w: question without id", ErrMalformedPayload)
	}
	if len(q.Options) > models.MaxOptions {
		return fmt.Errorf("%w: question %s has %d options", ErrMalformedPayload, q.ID, len(q.Options))
	}
	return nil
}

func (e *Engine) onConnect() error {
	e.state.Connected = true

	req := events.JoinRequest{GameID: e.id.GameID, Role: e.id.Role}
	if e.id.Role == models.RoleTeam {
		req.TeamCode = e.id.TeamCode
	}
	return e.emit(events.TypeJoin, req)
}

func (e *Engine) onBuzzLock(p events.BuzzLockPayload) error {
	if p.WinnerTeamID.IsZero() && p.WinnerTeamCode == "" {
		return fmt.Errorf("%w: buzz_lock without a winner", ErrMalformedPayload)
	}
	current := e.currentQuestionID()
	if current.IsZero() || (!p.QuestionID.IsZero() && p.QuestionID != current) {
		return fmt.Errorf("%w: buzz_lock for question %q, current question %q", ErrStaleEvent, p.QuestionID, current)
	}

	if e.id.Role == models.RoleHost {
		e.state.ActiveTeam = p.WinnerLabel()
		e.notify(SeveritySuccess, fmt.Sprintf("%s buzzed in!", p.WinnerLabel()))
		return nil
	}

	already := e.buzz.Locked()
	winner, self := e.raceKeys(p)
	e.buzz.OnRaceResult(winner, self)
	if already {
		return nil
	}

	log.Info().
		Str("question_id", current.String()).
		Str("winner", e.buzz.Winner()).
		Bool("won", e.buzz.Won()).
		Msg("buzz race settled")
	if e.buzz.Won() {
		e.notify(SeveritySuccess, "You buzzed in first!")
	} else {
		e.notify(SeverityWarning, fmt.Sprintf("%s buzzed in first", p.WinnerLabel()))
	}
	return nil
}

// raceKeys picks a comparable pair out of the winner and this console:
// ids when both sides have one, team codes otherwise.
func (e *Engine) raceKeys(p events.BuzzLockPayload) (winner, self string) {
	if !p.WinnerTeamID.IsZero() && !e.id.TeamID.IsZero() {
		return p.WinnerTeamID.String(), e.id.TeamID.String()
	}
	return p.WinnerTeamCode, e.id.TeamCode
}

func (e *Engine) onMaskApplied(p events.MaskAppliedPayload) error {
	if e.id.Role != models.RoleTeam {
		return fmt.Errorf("%w: mask_applied on a %s console", ErrStaleEvent, e.id.Role)
	}
	if p.QuestionID.IsZero() {
		return fmt.Errorf("%w: mask_applied without questionId", ErrMalformedPayload)
	}

	snap := e.state.Snapshot
	current := e.currentQuestionID()
	if current.IsZero() || p.QuestionID != current {
		return fmt.Errorf("%w: mask for question %q, current question %q", ErrStaleEvent, p.QuestionID, current)
	}
	if err := validateMask(p.MaskedOptions, len(snap.Question.Options)); err != nil {
		return err
	}

	changed, err := e.masks.Apply(p.QuestionID, p.MaskedOptions)
	if err != nil {
		return err
	}

	// The 50-50 is spent for the whole round once any mask lands.
	e.lifelines.Confirm(snap.CurrentRoundID, models.LifelineFiftyFifty)

	if e.state.Selected != noSelection && e.masks.IsMasked(e.state.Selected) {
		e.state.Selected = noSelection
	}
	if changed {
		e.notify(SeveritySuccess, "50-50 lifeline applied!")
	}
	return nil
}

func (e *Engine) onRejected(p events.ErrorPayload) {
	e.notify(SeverityWarning, p.Message)
	if e.id.Role != models.RoleTeam {
		return
	}

	r := classifyRejection(p.Message)
	round := e.roundID()

	switch r.target {
	case rejectsFiftyFifty:
		if r.permanent {
			e.lifelines.MarkUsed(round, models.LifelineFiftyFifty)
		} else {
			e.lifelines.Reject(round, models.LifelineFiftyFifty)
		}
	case rejectsBuzz:
		e.buzz.OnRejected(r.permanent)
	default:
		// Unattributed: revert whichever optimistic action is outstanding
		if e.lifelines.Reject(round, models.LifelineFiftyFifty) {
			return
		}
		if e.buzz.Pending() {
			e.buzz.OnRejected(false)
		}
	}

	log.Debug().
		Str("message", p.Message).
		Bool("permanent", r.permanent).
		Msg("server rejected an action")
}

func (e *Engine) onLifelineExpired(round models.ID, kind models.LifelineKind) {
	e.notify(SeverityWarning, fmt.Sprintf("No answer to %s request, try again", kind.Label()))
	e.publish()
}

// questionOpen reports whether question-scoped controls may be enabled
func (e *Engine) questionOpen() bool {
	snap := e.state.Snapshot
	return e.id.Role == models.RoleTeam &&
		snap != nil &&
		snap.Phase.Interactive() &&
		snap.Question != nil
}

func (e *Engine) buzzEnabled() bool {
	return e.questionOpen() && e.buzz.Enabled()
}

func (e *Engine) lifelineEnabled(kind models.LifelineKind) bool {
	if !e.questionOpen() {
		return false
	}
	round := e.roundID()
	if e.lifelines.IsUsed(round, kind) || e.lifelines.IsPending(round, kind) {
		return false
	}
	if kind == models.LifelineFiftyFifty && e.state.Snapshot.Question.Type != models.QuestionTypeMCQ {
		return false
	}
	return true
}

func (e *Engine) currentQuestionID() models.ID {
	return e.state.Snapshot.QuestionID()
}

func (e *Engine) roundID() models.ID {
	if e.state.Snapshot == nil {
		return ""
	}
	return e.state.Snapshot.CurrentRoundID
}

func (e *Engine) emit(event events.Type, payload any) error {
	if e.emitter == nil {
		return fmt.Errorf("emit %s: no event channel", event)
	}
	if err := e.emitter.Emit(event, payload); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}

func (e *Engine) notify(severity Severity, message string) {
	n := Notification{Severity: severity, Message: message, At: e.sched.Now()}
	for _, s := range e.subs {
		s.Notify(n)
	}
}

// publish bumps the view version and hands the view to every subscriber
func (e *Engine) publish() View {
	e.version++
	v := e.View()
	for _, s := range e.subs {
		s.Publish(v)
	}
	return v
}

func malformedMessage(event events.Type) string {
	if event == events.TypeMaskApplied {
		return "50-50 data missing"
	}
	return fmt.Sprintf("Ignored malformed %s event", event)
}
