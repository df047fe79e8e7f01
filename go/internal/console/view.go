package console

import (
	"fmt"

	"github.com/yash0238/quizmaster/go/internal/models"
)

// NoQuestionPlaceholder is shown while the snapshot carries no question
const NoQuestionPlaceholder = "No question selected"

var optionLetters = [models.MaxOptions]string{"A", "B", "C", "D"}

// View is the complete render model of a console. Render adapters project
// it; they never read engine state directly.
type View struct {
	Version     uint64           `json:"version"`
	Role        models.Role      `json:"role"`
	GameID      models.ID        `json:"gameId"`
	TeamCode    string           `json:"teamCode,omitempty"`
	Connected   bool             `json:"connected"`
	Phase       models.Phase     `json:"phase,omitempty"`
	RoundID     models.ID        `json:"roundId,omitempty"`
	Question    *QuestionView    `json:"question,omitempty"`
	Placeholder string           `json:"placeholder,omitempty"`
	Buzz        *BuzzView        `json:"buzz,omitempty"`
	Lifelines   []LifelineView   `json:"lifelines,omitempty"`
	Countdown   CountdownDisplay `json:"countdown"`
	ActiveTeam  string           `json:"activeTeam,omitempty"`
}

// QuestionView is the question as the console shows it
type QuestionView struct {
	ID      models.ID           `json:"id"`
	Text    string              `json:"text,omitempty"`
	Type    models.QuestionType `json:"type"`
	Options []OptionView        `json:"options"`
}

// OptionView is one answer slot
type OptionView struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Text     string `json:"text"`
	Masked   bool   `json:"masked"`
	Selected bool   `json:"selected"`
	Enabled  bool   `json:"enabled"`
}

// BuzzView is the buzz control
type BuzzView struct {
	Enabled bool       `json:"enabled"`
	Status  BuzzStatus `json:"status"`
	Label   string     `json:"label"`
}

// LifelineView is one lifeline control
type LifelineView struct {
	Kind    models.LifelineKind `json:"kind"`
	Label   string              `json:"label"`
	Enabled bool                `json:"enabled"`
	Used    bool                `json:"used"`
	Pending bool                `json:"pending"`
}

// OptionLabel formats an option the way the consoles print it ("B: Paris")
func OptionLabel(i int, text string) string {
	if i < 0 || i >= len(optionLetters) {
		return text
	}
	return fmt.Sprintf("%s: %s", optionLetters[i], text)
}

// View builds the render model from the current state
func (e *Engine) View() View {
	v := View{
		Version:    e.version,
		Role:       e.id.Role,
		GameID:     e.id.GameID,
		TeamCode:   e.id.TeamCode,
		Connected:  e.state.Connected,
		Countdown:  e.countdown.Display(),
		ActiveTeam: e.state.ActiveTeam,
	}

	snap := e.state.Snapshot
	if snap != nil {
		v.Phase = snap.Phase
		v.RoundID = snap.CurrentRoundID
	}

	if snap == nil || snap.Question == nil {
		v.Placeholder = NoQuestionPlaceholder
	} else {
		v.Question = e.questionView(snap.Question)
	}

	if e.id.Role != models.RoleTeam {
		return v
	}

	status := e.buzz.Status()
	v.Buzz = &BuzzView{
		Enabled: e.buzzEnabled(),
		Status:  status,
		Label:   status.Label(),
	}

	round := e.roundID()
	for _, kind := range models.LifelineKinds {
		v.Lifelines = append(v.Lifelines, LifelineView{
			Kind:    kind,
			Label:   kind.Label(),
			Enabled: e.lifelineEnabled(kind),
			Used:    e.lifelines.IsUsed(round, kind),
			Pending: e.lifelines.IsPending(round, kind),
		})
	}
	return v
}

func (e *Engine) questionView(q *models.Question) *QuestionView {
	qv := &QuestionView{
		ID:      q.ID,
		Text:    q.Text,
		Type:    q.Type,
		Options: make([]OptionView, 0, len(q.Options)),
	}
	open := e.questionOpen()
	for i, text := range q.Options {
		masked := e.masks.IsMasked(i)
		qv.Options = append(qv.Options, OptionView{
			Index:    i,
			Label:    OptionLabel(i, text),
			Text:     text,
			Masked:   masked,
			Selected: e.state.Selected == i,
			Enabled:  open && !masked,
		})
	}
	return qv
}
