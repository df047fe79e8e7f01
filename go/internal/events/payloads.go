package events

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/yash0238/quizmaster/go/internal/models"
)

// Payloads pushed by the server

// BuzzLockPayload announces the winner of a buzz race. The server names the
// winner by id, by code or both.
type BuzzLockPayload struct {
	QuestionID     models.ID `json:"questionId,omitempty"`
	WinnerTeamID   models.ID `json:"winnerTeamId,omitempty"`
	WinnerTeamCode string    `json:"winnerTeamCode,omitempty"`
	WinnerTeamName string    `json:"winnerTeamName,omitempty"`
}

// WinnerLabel returns the most readable name for the winning team
func (p BuzzLockPayload) WinnerLabel() string {
	switch {
	case p.WinnerTeamName != "":
		return p.WinnerTeamName
	case p.WinnerTeamCode != "":
		return p.WinnerTeamCode
	}
	return p.WinnerTeamID.String()
}

// MaskAppliedPayload confirms a 50-50 for one team and one question
type MaskAppliedPayload struct {
	GameID        models.ID `json:"gameId,omitempty"`
	TeamCode      string    `json:"teamCode,omitempty"`
	QuestionID    models.ID `json:"questionId"`
	MaskedOptions []int     `json:"maskedOptions"`
}

// DefaultRejectionMessage is shown when an error event carries no text
const DefaultRejectionMessage = "Action rejected"

// ErrorPayload is a server rejection. The server sends either
// {"message": "..."} or a bare string.
type ErrorPayload struct {
	Message string `json:"message"`
}

// UnmarshalJSON accepts both wire forms of an error
func (p *ErrorPayload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		p.Message = DefaultRejectionMessage
		return nil
	case data[0] == '"':
		if err := json.Unmarshal(data, &p.Message); err != nil {
			return err
		}
	default:
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		p.Message = obj.Message
	}

	if strings.TrimSpace(p.Message) == "" {
		p.Message = DefaultRejectionMessage
	}
	return nil
}

// ToastPayload is a free-form notification from the server
type ToastPayload struct {
	Msg string `json:"msg"`
}

// Requests emitted by the console

// JoinRequest asks the server to add the console to its game and team rooms
type JoinRequest struct {
	GameID   models.ID   `json:"gameId"`
	Role     models.Role `json:"role"`
	TeamCode string      `json:"teamCode,omitempty"`
}

// StateRequest asks the server to push a full snapshot
type StateRequest struct {
	GameID models.ID `json:"gameId"`
}

// BuzzRequest enters the team into the buzz race for the current question
type BuzzRequest struct {
	GameID   models.ID `json:"gameId"`
	TeamCode string    `json:"teamCode"`
}

// FiftyRequest asks the server to eliminate two wrong options
type FiftyRequest struct {
	GameID     models.ID `json:"gameId"`
	TeamCode   string    `json:"teamCode"`
	QuestionID models.ID `json:"questionId,omitempty"`
}
