package events

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash0238/quizmaster/go/internal/models"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(TypeBuzz, BuzzRequest{GameID: "42", TeamCode: "T1"})
	require.NoError(t, err)

	_, err = uuid.Parse(env.ID)
	assert.NoError(t, err)
	assert.Equal(t, TypeBuzz, env.Event)
	assert.False(t, env.Timestamp.IsZero())
	assert.JSONEq(t, `{"gameId": 42, "teamCode": "T1"}`, string(env.Data))

	env, err = NewEnvelope(TypeStateRequest, nil)
	require.NoError(t, err)
	assert.Empty(t, env.Data)

	_, err = NewEnvelope(TypeBuzz, func() {})
	assert.Error(t, err)
}

func TestParseStateUpdate(t *testing.T) {
	env := Envelope{Event: TypeStateUpdate, Data: json.RawMessage(`{
		"gameId": 12,
		"state": "SHOW",
		"currentRoundId": 3,
		"question": {"id": 99, "text": "Capital of France?", "type": "MCQ", "options": ["Paris", "Rome"]},
		"deadlineEpochMs": 1700000030000,
		"activeTeam": {"id": 5, "name": "Owls", "code": "OWL"}
	}`)}

	payload, err := ParsePayload(env)
	require.NoError(t, err)

	snap, ok := payload.(models.GameSnapshot)
	require.True(t, ok)
	assert.Equal(t, models.ID("12"), snap.GameID)
	assert.Equal(t, models.PhaseShow, snap.Phase)
	assert.Equal(t, models.ID("3"), snap.CurrentRoundID)
	assert.Equal(t, models.ID("99"), snap.QuestionID())
	assert.Equal(t, []string{"Paris", "Rome"}, snap.Question.Options)
	assert.Equal(t, int64(1700000030000), snap.DeadlineEpochMs)
	assert.Equal(t, "Owls", snap.ActiveTeamLabel())
}

func TestParseStateUpdatePhaseAlias(t *testing.T) {
	payload, err := ParsePayload(Envelope{Event: TypeStateUpdate, Data: json.RawMessage(`{"gameId":"g1","phase":"LOCK"}`)})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseLock, payload.(models.GameSnapshot).Phase)

	// "state" wins when both are present
	payload, err = ParsePayload(Envelope{Event: TypeStateUpdate, Data: json.RawMessage(`{"state":"REVEAL","phase":"LOCK"}`)})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseReveal, payload.(models.GameSnapshot).Phase)
}

func TestParseTargetedEvents(t *testing.T) {
	payload, err := ParsePayload(Envelope{Event: TypeBuzzLock, Data: json.RawMessage(`{"questionId":"q1","winnerTeamId":7,"winnerTeamName":"Owls"}`)})
	require.NoError(t, err)
	lock := payload.(BuzzLockPayload)
	assert.Equal(t, models.ID("7"), lock.WinnerTeamID)
	assert.Equal(t, "Owls", lock.WinnerLabel())

	payload, err = ParsePayload(Envelope{Event: TypeMaskApplied, Data: json.RawMessage(`{"gameId":1,"teamCode":"T1","questionId":"q1","maskedOptions":[1,3]}`)})
	require.NoError(t, err)
	assert.Equal(t, MaskAppliedPayload{GameID: "1", TeamCode: "T1", QuestionID: "q1", MaskedOptions: []int{1, 3}}, payload)

	payload, err = ParsePayload(Envelope{Event: TypeToast, Data: json.RawMessage(`{"msg":"Welcome"}`)})
	require.NoError(t, err)
	assert.Equal(t, ToastPayload{Msg: "Welcome"}, payload)

	_, err = ParsePayload(Envelope{Event: TypeMaskApplied, Data: json.RawMessage(`{"maskedOptions":"1,3"}`)})
	assert.Error(t, err)
}

func TestParseError(t *testing.T) {
	cases := map[string]string{
		`{"message":"Buzzing closed"}`: "Buzzing closed",
		`"Lifeline already used"`:      "Lifeline already used",
		`{"message":"  "}`:             DefaultRejectionMessage,
		`null`:                         DefaultRejectionMessage,
		``:                             DefaultRejectionMessage,
	}
	for data, want := range cases {
		payload, err := ParsePayload(Envelope{Event: TypeError, Data: json.RawMessage(data)})
		require.NoError(t, err, data)
		assert.Equal(t, want, payload.(ErrorPayload).Message, data)
	}
}

func TestParseLifecycleAndUnknown(t *testing.T) {
	for _, event := range []Type{TypeConnect, TypeDisconnect, TypeJoined} {
		payload, err := ParsePayload(Envelope{Event: event})
		assert.NoError(t, err)
		assert.Nil(t, payload)
	}

	_, err := ParsePayload(Envelope{Event: "scores"})
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestWinnerLabel(t *testing.T) {
	assert.Equal(t, "Owls", BuzzLockPayload{WinnerTeamID: "1", WinnerTeamCode: "OWL", WinnerTeamName: "Owls"}.WinnerLabel())
	assert.Equal(t, "OWL", BuzzLockPayload{WinnerTeamID: "1", WinnerTeamCode: "OWL"}.WinnerLabel())
	assert.Equal(t, "1", BuzzLockPayload{WinnerTeamID: "1"}.WinnerLabel())
}
