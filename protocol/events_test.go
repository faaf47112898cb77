package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(EventRemoteNotePress, RemoteNotePress{
		Note:     "C#",
		Octave:   4,
		Velocity: 0.8,
		UserID:   "abc",
		Color:    "#8B5CF6",
	})
	require.NoError(t, err)

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, EventRemoteNotePress, decoded.Event)

	var press RemoteNotePress
	require.NoError(t, json.Unmarshal(decoded.Data, &press))
	assert.Equal(t, "C#", press.Note)
	assert.Equal(t, 4, press.Octave)
	assert.Equal(t, 0.8, press.Velocity)
	assert.Equal(t, "abc", press.UserID)
	assert.Equal(t, "#8B5CF6", press.Color)
}

func TestEnvelopeToleratesUnknownFields(t *testing.T) {
	raw := []byte(`{"event":"notePress","data":{"note":"C","octave":4,"velocity":0.5,"sparkle":true},"extra":1}`)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, EventNotePress, env.Event)

	var press NotePress
	require.NoError(t, json.Unmarshal(env.Data, &press))
	assert.Equal(t, "C", press.Note)
}

func TestRandomColorDrawsFromPalette(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		color := RandomColor()
		assert.Contains(t, Palette[:], color)
		seen[color] = true
	}
	// Uniform draws over 200 rounds should touch most of the palette.
	assert.Greater(t, len(seen), 4)
}

func TestWireFieldNames(t *testing.T) {
	data, err := json.Marshal(RemoteNoteRelease{Note: "C", Octave: 4, UserID: "abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"note":"C","octave":4,"userId":"abc"}`, string(data))

	data, err = json.Marshal(UserInfo{ID: "abc", Color: "#10B981"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc","color":"#10B981"}`, string(data))
}
