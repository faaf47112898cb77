package audio

import (
	"encoding/binary"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/tapejam/tapejam/sdk/tape"
)

const (
	sampleRate = 44100
	// toneSeconds is the length of the rendered loop buffer. The
	// output device loops it, so one cycle-aligned second is enough.
	toneSeconds = 1
	// fadeSamples ramps the loop edges to avoid clicks.
	fadeSamples = 256
)

// SynthVoice is the fallback tone generator used when a sample bank
// fails to load. It renders an equal-temperament sine for each note
// and plays it through the same Output as the sampled voice.
type SynthVoice struct {
	out    Output
	logger *zap.Logger

	mu    sync.Mutex
	tones map[string][]byte
}

// NewSynthVoice constructs the fallback voice. It never fails.
func NewSynthVoice(out Output, logger *zap.Logger) *SynthVoice {
	return &SynthVoice{out: out, logger: logger, tones: make(map[string][]byte)}
}

// TriggerAttack renders (or reuses) the note's tone and starts it.
// Unparseable note identifiers are ignored.
func (v *SynthVoice) TriggerAttack(noteID string, velocity float64) {
	tone, err := v.tone(noteID)
	if err != nil {
		v.logger.Warn("cannot synthesize note", zap.String("note", noteID), zap.Error(err))
		return
	}
	v.out.Start(noteID, tone, velocity)
}

// TriggerRelease stops the note's tone.
func (v *SynthVoice) TriggerRelease(noteID string, cause tape.StopCause) {
	v.out.Stop(noteID, cause)
}

func (v *SynthVoice) tone(noteID string) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if tone, ok := v.tones[noteID]; ok {
		return tone, nil
	}

	name, octave, err := tape.ParseNoteID(noteID)
	if err != nil {
		return nil, err
	}
	midi, err := tape.MIDINumber(name, octave)
	if err != nil {
		return nil, err
	}

	freq := NoteFrequency(midi)
	tone := renderSine(freq)
	v.tones[noteID] = tone
	return tone, nil
}

// NoteFrequency returns the equal-temperament frequency in Hz for a
// MIDI note number (A4 = 69 = 440 Hz).
func NoteFrequency(midi int) float64 {
	return 440 * math.Pow(2, float64(midi-69)/12)
}

// renderSine produces a mono 16-bit little-endian PCM sine buffer with
// faded edges.
func renderSine(freq float64) []byte {
	n := sampleRate * toneSeconds
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		sample := math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
		gain := 0.5
		if i < fadeSamples {
			gain *= float64(i) / fadeSamples
		} else if n-i < fadeSamples {
			gain *= float64(n-i) / fadeSamples
		}
		value := int16(sample * gain * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(value))
	}
	return buf
}
