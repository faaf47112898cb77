package audio

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tapejam/tapejam/sdk/tape"
)

type fakeOutput struct {
	mu      sync.Mutex
	started map[string][]byte
	stopped map[string]tape.StopCause
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{
		started: make(map[string][]byte),
		stopped: make(map[string]tape.StopCause),
	}
}

func (o *fakeOutput) Start(noteID string, pcm []byte, velocity float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started[noteID] = pcm
}

func (o *fakeOutput) Stop(noteID string, cause tape.StopCause) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped[noteID] = cause
}

func testBank() Bank {
	return Bank{
		ID:   "test",
		Name: "Test",
		Samples: map[string]string{
			"C4": "C4.wav",
			"D4": "D4.wav",
		},
	}
}

func TestSampledVoiceLoadsAndPlays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("sample:" + r.URL.Path))
	}))
	defer srv.Close()

	out := newFakeOutput()
	voice, err := NewSampledVoice(context.Background(), srv.Client(), srv.URL, testBank(), out, zap.NewNop())
	require.NoError(t, err)

	voice.TriggerAttack("C4", 0.8)
	assert.Equal(t, []byte("sample:/test/C4.wav"), out.started["C4"])

	voice.TriggerRelease("C4", tape.StopExpired)
	assert.Equal(t, tape.StopExpired, out.stopped["C4"])

	// Notes outside the bank's range do not start anything.
	voice.TriggerAttack("A0", 0.8)
	_, ok := out.started["A0"]
	assert.False(t, ok)
}

func TestSampledVoiceLoadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewSampledVoice(context.Background(), srv.Client(), srv.URL, testBank(), newFakeOutput(), zap.NewNop())
	assert.Error(t, err)
}

func TestLoadVoiceFallsBackToSynth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	out := newFakeOutput()
	voice := LoadVoice(context.Background(), srv.Client(), srv.URL, testBank(), out, zap.NewNop())
	require.IsType(t, &SynthVoice{}, voice)

	// The fallback still answers every press.
	voice.TriggerAttack("C4", 0.5)
	assert.NotEmpty(t, out.started["C4"])

	voice.TriggerRelease("C4", tape.StopManual)
	assert.Equal(t, tape.StopManual, out.stopped["C4"])
}

func TestSynthVoiceIgnoresBadNoteIDs(t *testing.T) {
	out := newFakeOutput()
	voice := NewSynthVoice(out, zap.NewNop())

	voice.TriggerAttack("not-a-note", 0.5)
	assert.Empty(t, out.started)
}

func TestNoteFrequency(t *testing.T) {
	assert.InDelta(t, 440.0, NoteFrequency(69), 1e-9)  // A4
	assert.InDelta(t, 261.63, NoteFrequency(60), 0.01) // C4
	assert.InDelta(t, 880.0, NoteFrequency(81), 1e-9)  // A5
}

func TestRenderSineIsBounded(t *testing.T) {
	buf := renderSine(440)
	require.Len(t, buf, sampleRate*toneSeconds*2)

	// Faded edges keep the loop click-free.
	assert.Equal(t, []byte{0, 0}, buf[:2])

	var peak int16
	for i := 0; i < len(buf); i += 2 {
		v := int16(uint16(buf[i]) | uint16(buf[i+1])<<8)
		if v > peak {
			peak = v
		}
	}
	assert.LessOrEqual(t, float64(peak), 0.5*math.MaxInt16+1)
	assert.Greater(t, float64(peak), 0.4*math.MaxInt16)
}
