package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	cases := map[string]ID{
		`"abc"`:  "abc",
		`42`:     "42",
		` 7 `:    "7",
		`null`:   "",
		`"0042"`: "0042",
	}
	for data, want := range cases {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(data), &id), data)
		assert.Equal(t, want, id, data)
	}

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &id))
	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
}

func TestIDMarshal(t *testing.T) {
	data, err := json.Marshal(struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
		D ID `json:"d"`
	}{A: "42", B: "q-1", C: "", D: "0042"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 42, "b": "q-1", "c": null, "d": "0042"}`, string(data))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Host ")
	require.NoError(t, err)
	assert.Equal(t, RoleHost, role)

	role, err = ParseRole("team")
	require.NoError(t, err)
	assert.Equal(t, RoleTeam, role)

	_, err = ParseRole("judge")
	assert.Error(t, err)
}

func TestPhase(t *testing.T) {
	for _, p := range []Phase{PhaseLobby, PhaseIdle, PhaseShow, PhaseLock, PhaseReveal} {
		assert.True(t, p.Known(), p)
		assert.Equal(t, p == PhaseShow, p.Interactive(), p)
	}
	assert.False(t, Phase("PAUSED").Known())
	assert.False(t, Phase("PAUSED").Interactive())
}

func TestSnapshotHelpers(t *testing.T) {
	var nilSnap *GameSnapshot
	assert.Equal(t, ID(""), nilSnap.QuestionID())
	assert.Empty(t, nilSnap.ActiveTeamLabel())

	snap := &GameSnapshot{ActiveTeamID: "9"}
	assert.Equal(t, "9", snap.ActiveTeamLabel())
	snap.ActiveTeam = &TeamRef{Code: "FX"}
	assert.Equal(t, "FX", snap.ActiveTeamLabel())

	q := &Question{ID: "q1", Options: []string{"a", "b"}}
	text, ok := q.Option(1)
	assert.True(t, ok)
	assert.Equal(t, "b", text)
	_, ok = q.Option(2)
	assert.False(t, ok)
}

func TestLifelineKinds(t *testing.T) {
	assert.Len(t, LifelineKinds, 3)
	for _, k := range LifelineKinds {
		assert.True(t, k.Valid())
	}
	assert.False(t, LifelineKind("SWAP").Valid())
	assert.Equal(t, "50-50", LifelineFiftyFifty.Label())
	assert.True(t, LifelineFiftyFifty.ServerBacked())
	assert.False(t, LifelinePhone.ServerBacked())
	assert.False(t, LifelineDiscuss.ServerBacked())
}
