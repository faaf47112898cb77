// Package protocol defines the wire contract between the tapejam relay
// and its clients.
//
// Every frame on the socket is a JSON Envelope carrying one of a closed
// set of event payloads. The contract is shared by the server and the
// Go SDK so the wire format stays authoritative in one place.
package protocol

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// Event names (wire-stable).
const (
	// EventUserInfo tells a connection its own assigned identity
	// (server -> client, once, immediately after accept).
	EventUserInfo = "userInfo"
	// EventUserPresence carries the full roster of connected users
	// (server -> all clients, on every join and leave).
	EventUserPresence = "userPresence"

	// EventNotePress reports a local key press (client -> server).
	EventNotePress = "notePress"
	// EventNoteRelease reports a local key release (client -> server).
	EventNoteRelease = "noteRelease"

	// EventRemoteNotePress forwards another user's press
	// (server -> every connection except the originator).
	EventRemoteNotePress = "remoteNotePress"
	// EventRemoteNoteRelease forwards another user's release
	// (server -> every connection except the originator).
	EventRemoteNoteRelease = "remoteNoteRelease"
)

// Envelope is the canonical frame wrapper.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals v into an Envelope for the given event name.
func NewEnvelope(event string, v any) (Envelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Envelope{Event: event, Data: data}, nil
}

// MustEnvelope is NewEnvelope for payload types that cannot fail to
// marshal. It panics on error and is intended for the relay's own
// fixed payload structs.
func MustEnvelope(event string, v any) Envelope {
	env, err := NewEnvelope(event, v)
	if err != nil {
		panic(err)
	}
	return env
}

// UserInfo identifies one connected user. It doubles as a presence
// roster entry.
type UserInfo struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

// NotePress is the client -> server press payload. The sender's
// identity is injected by the relay, never by the client.
type NotePress struct {
	Note     string  `json:"note"`
	Octave   int     `json:"octave"`
	Velocity float64 `json:"velocity"`
}

// NoteRelease is the client -> server release payload.
type NoteRelease struct {
	Note   string `json:"note"`
	Octave int    `json:"octave"`
}

// RemoteNotePress is a press as forwarded to the other connections,
// tagged with the originator's identity.
type RemoteNotePress struct {
	Note     string  `json:"note"`
	Octave   int     `json:"octave"`
	Velocity float64 `json:"velocity"`
	UserID   string  `json:"userId"`
	Color    string  `json:"color"`
}

// RemoteNoteRelease is a release as forwarded to the other connections.
type RemoteNoteRelease struct {
	Note   string `json:"note"`
	Octave int    `json:"octave"`
	UserID string `json:"userId"`
}

// Palette is the fixed set of user colors. Colors are assigned
// uniformly at random on connect; collisions between concurrent users
// are allowed and expected.
var Palette = [8]string{
	"#8B5CF6", // purple
	"#10B981", // green
	"#F59E0B", // amber
	"#EF4444", // red
	"#3B82F6", // blue
	"#EC4899", // pink
	"#14B8A6", // teal
	"#F97316", // orange
}

// RandomColor picks one palette entry uniformly at random.
func RandomColor() string {
	return Palette[rand.Intn(len(Palette))]
}
