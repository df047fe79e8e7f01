package console

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/yash0238/quizmaster/go/internal/events"
	"github.com/yash0238/quizmaster/go/internal/models"
)

// ActionType names a user interaction sent by a render adapter
type ActionType string

const (
	ActionBuzz     ActionType = "buzz"
	ActionLifeline ActionType = "lifeline"
	ActionSelect   ActionType = "select"
	ActionRefresh  ActionType = "refresh"
)

// Action is a user interaction as render adapters encode it
type Action struct {
	Action ActionType          `json:"action"`
	Kind   models.LifelineKind `json:"kind,omitempty"`
	Option *int                `json:"option,omitempty"`
}

// Perform dispatches an action to the matching engine operation
func (e *Engine) Perform(a Action) error {
	switch a.Action {
	case ActionBuzz:
		return e.Buzz()
	case ActionLifeline:
		return e.UseLifeline(a.Kind)
	case ActionSelect:
		if a.Option == nil {
			return fmt.Errorf("select: missing option")
		}
		return e.SelectOption(*a.Option)
	case ActionRefresh:
		return e.RequestState()
	}
	return fmt.Errorf("unknown action %q", a.Action)
}

// Buzz enters the race for the current question. The press is rendered
// optimistically; the race result arrives later as buzz_lock.
func (e *Engine) Buzz() error {
	if !e.buzzEnabled() || !e.buzz.Press() {
		return fmt.Errorf("buzz: %w", ErrControlDisabled)
	}
	defer e.publish()

	err := e.emit(events.TypeBuzz, events.BuzzRequest{
		GameID:   e.id.GameID,
		TeamCode: e.id.TeamCode,
	})
	if err != nil {
		e.buzz.OnRejected(false)
		return err
	}

	log.Debug().
		Str("question_id", e.currentQuestionID().String()).
		Msg("buzz sent")
	return nil
}

// UseLifeline spends a lifeline for the current round. The 50-50 goes to the
// server and stays pending until mask_applied, an error or the timeout; the
// advisory lifelines are spent locally.
func (e *Engine) UseLifeline(kind models.LifelineKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown lifeline %q", kind)
	}
	if !e.lifelineEnabled(kind) {
		return fmt.Errorf("%s: %w", kind.Label(), ErrControlDisabled)
	}
	defer e.publish()

	round := e.roundID()
	if !kind.ServerBacked() {
		e.lifelines.MarkUsed(round, kind)
		e.notify(SeverityInfo, fmt.Sprintf("%s used", kind.Label()))
		return nil
	}

	if !e.lifelines.Begin(round, kind) {
		return fmt.Errorf("%s: %w", kind.Label(), ErrControlDisabled)
	}
	err := e.emit(events.TypeFiftyRequest, events.FiftyRequest{
		GameID:     e.id.GameID,
		TeamCode:   e.id.TeamCode,
		QuestionID: e.currentQuestionID(),
	})
	if err != nil {
		e.lifelines.Reject(round, kind)
		return err
	}

	log.Debug().
		Str("round_id", round.String()).
		Str("lifeline", string(kind)).
		Msg("lifeline requested")
	return nil
}

// SelectOption highlights option i locally. Nothing is sent to the server.
func (e *Engine) SelectOption(i int) error {
	if !e.questionOpen() {
		return fmt.Errorf("select: %w", ErrControlDisabled)
	}
	if _, ok := e.state.Snapshot.Question.Option(i); !ok {
		return fmt.Errorf("select: option %d out of range", i)
	}
	if e.masks.IsMasked(i) {
		return fmt.Errorf("select option %d: %w", i, ErrControlDisabled)
	}

	e.state.Selected = i
	e.publish()
	return nil
}

// RequestState asks the server to push a fresh snapshot
func (e *Engine) RequestState() error {
	if err := e.emit(events.TypeStateRequest, events.StateRequest{GameID: e.id.GameID}); err != nil {
		return err
	}
	e.notify(SeverityInfo, "Refreshing state...")
	return nil
}
