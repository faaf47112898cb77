package tape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteID(t *testing.T) {
	assert.Equal(t, "C#4", NoteID("C#", 4))
	assert.Equal(t, "A0", NoteID("A", 0))
}

func TestParseNoteID(t *testing.T) {
	cases := []struct {
		id     string
		note   string
		octave int
		ok     bool
	}{
		{id: "C4", note: "C", octave: 4, ok: true},
		{id: "C#4", note: "C#", octave: 4, ok: true},
		{id: "A#10", note: "A#", octave: 10, ok: true},
		{id: "B-1", note: "B", octave: -1, ok: true},
		{id: "H4", ok: false},
		{id: "4", ok: false},
		{id: "", ok: false},
		{id: "C", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			note, octave, err := ParseNoteID(tc.id)
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.note, note)
			assert.Equal(t, tc.octave, octave)
		})
	}
}

func TestMIDINumber(t *testing.T) {
	midi, err := MIDINumber("C", 4)
	require.NoError(t, err)
	assert.Equal(t, 60, midi)

	midi, err = MIDINumber("A", 4)
	require.NoError(t, err)
	assert.Equal(t, 69, midi)

	_, err = MIDINumber("X", 4)
	assert.Error(t, err)
}

func TestValidNoteName(t *testing.T) {
	assert.True(t, ValidNoteName("C"))
	assert.True(t, ValidNoteName("F#"))
	assert.False(t, ValidNoteName("E#"))
	assert.False(t, ValidNoteName("c"))
}
