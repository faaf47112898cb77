// Package tape models the tape-replay playback semantics of a
// Mellotron-style keyboard: every sounding note is backed by a finite
// tape loop, so a held key stops on its own once the tape runs out.
package tape

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TapeDuration is the maximum sounding time per note, shared by all
// notes and all sound banks. It mirrors the physical tape-loop length
// of the original hardware.
const TapeDuration = 8 * time.Second

// StopCause distinguishes a manual key release from the tape running
// out, so a voice can apply different release tailoring to each.
type StopCause int

const (
	// StopManual is a key release before the tape ran out.
	StopManual StopCause = iota
	// StopExpired is the natural end of the tape.
	StopExpired
)

func (c StopCause) String() string {
	switch c {
	case StopManual:
		return "manual"
	case StopExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Voice is the sample-playback unit the engine drives. Implementations
// live in sdk/audio; the engine only needs attack and release.
type Voice interface {
	TriggerAttack(noteID string, velocity float64)
	TriggerRelease(noteID string, cause StopCause)
}

// ExpireFunc is invoked exactly once when a note's tape runs out
// naturally. It is never called for manual releases.
type ExpireFunc func(noteID string)

// activeNote is one entry in the engine's active-note table.
type activeNote struct {
	startedAt time.Time
	expiry    Timer
	onExpire  ExpireFunc
}

// Engine tracks which notes are sounding and enforces the tape limit.
//
// The active-note table is owned and mutated only by the engine, keyed
// by note identifier; at most one entry exists per identifier. Callers
// read derived snapshots (PlaybackTime, RemainingTime, ActiveNotes)
// but never touch the table directly.
type Engine struct {
	logger *zap.Logger
	clock  Clock
	tape   time.Duration

	mu    sync.Mutex
	voice Voice
	notes map[string]*activeNote
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock swaps the scheduling clock, used by tests to drive expiry
// virtually.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithTapeDuration overrides the tape length. Production code keeps
// the default; tests shorten it.
func WithTapeDuration(d time.Duration) Option {
	return func(e *Engine) { e.tape = d }
}

// WithVoice attaches the playback voice at construction time.
func WithVoice(v Voice) Option {
	return func(e *Engine) { e.voice = v }
}

// NewEngine constructs an engine. Until a voice is attached, press and
// release are logged no-ops: that is the expected steady state before
// the platform allows audio output.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		logger: logger,
		clock:  SystemClock(),
		tape:   TapeDuration,
		notes:  make(map[string]*activeNote),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetVoice attaches the playback voice, typically after the sample
// bank finished loading.
func (e *Engine) SetVoice(v Voice) {
	e.mu.Lock()
	e.voice = v
	e.mu.Unlock()
}

// Press starts a note sounding. Pressing an already-sounding note is a
// no-op until it is released or its tape runs out. onExpire may be nil.
func (e *Engine) Press(note string, octave int, velocity float64, onExpire ExpireFunc) {
	id := NoteID(note, octave)

	e.mu.Lock()
	voice := e.voice
	if voice == nil {
		e.mu.Unlock()
		e.logger.Warn("press ignored, no voice attached", zap.String("note", id))
		return
	}
	if _, sounding := e.notes[id]; sounding {
		e.mu.Unlock()
		return
	}
	entry := &activeNote{
		startedAt: e.clock.Now(),
		onExpire:  onExpire,
	}
	e.notes[id] = entry
	entry.expiry = e.clock.AfterFunc(e.tape, func() {
		e.expire(id, entry)
	})
	e.mu.Unlock()

	voice.TriggerAttack(id, velocity)
}

// Release stops a sounding note and cancels its pending tape expiry.
// Releasing an idle note is a no-op.
func (e *Engine) Release(note string, octave int) {
	id := NoteID(note, octave)

	e.mu.Lock()
	voice := e.voice
	entry, sounding := e.notes[id]
	if !sounding {
		e.mu.Unlock()
		if voice == nil {
			e.logger.Warn("release ignored, no voice attached", zap.String("note", id))
		}
		return
	}
	delete(e.notes, id)
	entry.expiry.Stop()
	e.mu.Unlock()

	if voice != nil {
		voice.TriggerRelease(id, StopManual)
	}
}

// expire is the scheduled end-of-tape task for one press. A manual
// release that won the race has already removed the entry, making this
// a no-op.
func (e *Engine) expire(id string, entry *activeNote) {
	e.mu.Lock()
	current, sounding := e.notes[id]
	if !sounding || current != entry {
		e.mu.Unlock()
		return
	}
	delete(e.notes, id)
	voice := e.voice
	e.mu.Unlock()

	if entry.onExpire != nil {
		entry.onExpire(id)
	}
	if voice != nil {
		voice.TriggerRelease(id, StopExpired)
	}
}

// IsNotePlaying reports whether the note identifier is sounding.
func (e *Engine) IsNotePlaying(noteID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, sounding := e.notes[noteID]
	return sounding
}

// PlaybackTime returns the elapsed time since the note's attack,
// clamped to the tape duration. ok is false when the note is idle.
func (e *Engine) PlaybackTime(noteID string) (elapsed time.Duration, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, sounding := e.notes[noteID]
	if !sounding {
		return 0, false
	}
	elapsed = e.clock.Now().Sub(entry.startedAt)
	if elapsed > e.tape {
		elapsed = e.tape
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed, true
}

// RemainingTime returns how much tape the note has left. ok is false
// when the note is idle.
func (e *Engine) RemainingTime(noteID string) (remaining time.Duration, ok bool) {
	elapsed, playing := e.PlaybackTime(noteID)
	if !playing {
		return 0, false
	}
	return e.tape - elapsed, true
}

// ActiveNotes returns a snapshot of the sounding note identifiers.
func (e *Engine) ActiveNotes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.notes))
	for id := range e.notes {
		ids = append(ids, id)
	}
	return ids
}
