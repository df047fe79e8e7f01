package models

import "encoding/json"

// Phase defines the game phase declared by the server.
type Phase string

const (
	PhaseLobby  Phase = "LOBBY"
	PhaseIdle   Phase = "IDLE"
	PhaseShow   Phase = "SHOW"
	PhaseLock   Phase = "LOCK"
	PhaseReveal Phase = "REVEAL"
)

// Known reports whether the phase is one the console understands.
func (p Phase) Known() bool {
	switch p {
	case PhaseLobby, PhaseIdle, PhaseShow, PhaseLock, PhaseReveal:
		return true
	}
	return false
}

// Interactive reports whether buzzing and lifelines are allowed.
func (p Phase) Interactive() bool {
	return p == PhaseShow
}

// QuestionType defines the kind of question on screen.
type QuestionType string

const (
	QuestionTypeMCQ   QuestionType = "MCQ"
	QuestionTypeOther QuestionType = "OTHER"
)

// MaxOptions is the number of answer slots a question can fill.
const MaxOptions = 4

// Question represents the active question of a snapshot.
type Question struct {
	ID      ID           `json:"id"`
	Text    string       `json:"text,omitempty"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options"`
}

// Option returns the option text at index i.
func (q *Question) Option(i int) (string, bool) {
	if q == nil || i < 0 || i >= len(q.Options) {
		return "", false
	}
	return q.Options[i], true
}

// GameSnapshot is the complete game state pushed by the server on every
// material change. A snapshot always replaces the previous one.
type GameSnapshot struct {
	GameID          ID        `json:"gameId"`
	Phase           Phase     `json:"state"`
	CurrentRoundID  ID        `json:"currentRoundId"`
	Question        *Question `json:"question,omitempty"`
	DeadlineEpochMs int64     `json:"deadlineEpochMs,omitempty"`
	ActiveTeamID    ID        `json:"activeTeamId,omitempty"`
	ActiveTeam      *TeamRef  `json:"activeTeam,omitempty"`
}

// UnmarshalJSON reads the phase from "state" and falls back to "phase".
func (s *GameSnapshot) UnmarshalJSON(data []byte) error {
	type plain GameSnapshot
	var aux struct {
		plain
		PhaseAlias Phase `json:"phase"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*s = GameSnapshot(aux.plain)
	if s.Phase == "" {
		s.Phase = aux.PhaseAlias
	}
	return nil
}

// QuestionID returns the id of the active question, or "" when there is none.
func (s *GameSnapshot) QuestionID() ID {
	if s == nil || s.Question == nil {
		return ""
	}
	return s.Question.ID
}

// ActiveTeamLabel returns the best display name for the team holding the floor.
func (s *GameSnapshot) ActiveTeamLabel() string {
	if s == nil {
		return ""
	}
	if s.ActiveTeam != nil {
		if s.ActiveTeam.Name != "" {
			return s.ActiveTeam.Name
		}
		if s.ActiveTeam.Code != "" {
			return s.ActiveTeam.Code
		}
	}
	return s.ActiveTeamID.String()
}
