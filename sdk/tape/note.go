package tape

import (
	"fmt"
	"strconv"
	"strings"
)

// noteSemitones maps note names to their semitone offset within an
// octave, C = 0.
var noteSemitones = map[string]int{
	"C": 0, "C#": 1,
	"D": 2, "D#": 3,
	"E": 4,
	"F": 5, "F#": 6,
	"G": 7, "G#": 8,
	"A": 9, "A#": 10,
	"B": 11,
}

// ValidNoteName reports whether name is one of C..B, optionally
// sharped.
func ValidNoteName(name string) bool {
	_, ok := noteSemitones[name]
	return ok
}

// NoteID builds the canonical note identifier, e.g. NoteID("C#", 4)
// returns "C#4". The id is the join key between the engine's
// active-note table and any press/release visualization.
func NoteID(note string, octave int) string {
	return note + strconv.Itoa(octave)
}

// ParseNoteID splits a note identifier back into name and octave.
func ParseNoteID(id string) (note string, octave int, err error) {
	split := strings.IndexFunc(id, func(r rune) bool {
		return r == '-' || (r >= '0' && r <= '9')
	})
	if split <= 0 {
		return "", 0, fmt.Errorf("invalid note id %q", id)
	}
	note = id[:split]
	if !ValidNoteName(note) {
		return "", 0, fmt.Errorf("invalid note name %q in %q", note, id)
	}
	octave, err = strconv.Atoi(id[split:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid octave in %q", id)
	}
	return note, octave, nil
}

// MIDINumber converts a note name and octave to its MIDI note number
// (C4 = 60, A4 = 69).
func MIDINumber(note string, octave int) (int, error) {
	semitone, ok := noteSemitones[note]
	if !ok {
		return 0, fmt.Errorf("invalid note name %q", note)
	}
	return (octave+1)*12 + semitone, nil
}
