package session

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tapejam/tapejam/internal/ws"
	"github.com/tapejam/tapejam/protocol"
)

// startTestRelay runs a real hub for the client to talk to.
func startTestRelay(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub(zap.NewNop(), "test-instance")
	go hub.Run(ctx)

	srv := httptest.NewServer(&ws.Handler{Hub: hub, Logger: zap.NewNop()})
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.MaxReconnectAttempts = 2
	return cfg
}

func waitForState(t *testing.T, events <-chan StateEvent, want ConnectionState) StateEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.New == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func TestReconnectBudgetExhaustedIsTerminal(t *testing.T) {
	// Nothing listens on this URL, so every attempt fails.
	client := NewClient(testConfig("ws://127.0.0.1:1/ws"), zap.NewNop())

	events := make(chan StateEvent, 16)
	client.OnStateChange(func(ev StateEvent) { events <- ev })

	client.Connect()
	ev := waitForState(t, events, StateDisconnected)
	assert.True(t, errors.Is(ev.Err, ErrReconnectExhausted))
	assert.Equal(t, StateDisconnected, client.State())

	// No further attempts happen on their own.
	select {
	case ev := <-events:
		t.Fatalf("unexpected transition after exhaustion: %s -> %s", ev.Old, ev.New)
	case <-time.After(200 * time.Millisecond):
	}

	// An explicit Connect starts a fresh budget.
	client.Connect()
	waitForState(t, events, StateConnecting)
	client.Disconnect()
}

func TestConnectIsIdempotent(t *testing.T) {
	url := startTestRelay(t)
	client := NewClient(testConfig(url), zap.NewNop())
	defer client.Disconnect()

	events := make(chan StateEvent, 16)
	client.OnStateChange(func(ev StateEvent) { events <- ev })

	client.Connect()
	waitForState(t, events, StateConnected)

	client.Connect()
	select {
	case ev := <-events:
		t.Fatalf("second connect caused transition: %s -> %s", ev.Old, ev.New)
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, StateConnected, client.State())
}

func TestEmitWhileDisconnectedIsDropped(t *testing.T) {
	client := NewClient(testConfig("ws://127.0.0.1:1/ws"), zap.NewNop())

	// Must not panic, must not queue.
	client.EmitNotePress("C", 4, 0.8)
	client.EmitNoteRelease("C", 4)
	assert.Equal(t, StateDisconnected, client.State())
}

func TestDisconnectStopsSession(t *testing.T) {
	url := startTestRelay(t)
	client := NewClient(testConfig(url), zap.NewNop())

	events := make(chan StateEvent, 16)
	client.OnStateChange(func(ev StateEvent) { events <- ev })

	client.Connect()
	waitForState(t, events, StateConnected)

	client.Disconnect()
	assert.Equal(t, StateDisconnected, client.State())

	// A second disconnect is harmless.
	client.Disconnect()
}

func TestScenarioTwoClientsHearEachOther(t *testing.T) {
	url := startTestRelay(t)

	newJoinedClient := func() (*Client, *PresenceStore) {
		client := NewClient(testConfig(url), zap.NewNop())
		store := NewPresenceStore()
		store.Bind(client)
		t.Cleanup(client.Disconnect)
		return client, store
	}

	clientA, storeA := newJoinedClient()
	var selfEcho int
	clientA.OnRemoteNotePress(func(protocol.RemoteNotePress) { selfEcho++ })

	clientB, storeB := newJoinedClient()
	remotePresses := make(chan protocol.RemoteNotePress, 1)
	clientB.OnRemoteNotePress(func(ev protocol.RemoteNotePress) { remotePresses <- ev })

	clientA.Connect()
	require.Eventually(t, func() bool {
		_, ok := storeA.Self()
		return ok
	}, 5*time.Second, 10*time.Millisecond, "client A never received userInfo")

	clientB.Connect()
	require.Eventually(t, func() bool {
		return len(storeA.Others()) == 1 && len(storeB.Others()) == 1
	}, 5*time.Second, 10*time.Millisecond, "presence never settled")

	selfA, _ := storeA.Self()
	assert.Contains(t, protocol.Palette[:], selfA.Color)
	assert.Equal(t, selfA.ID, clientA.SelfID())

	clientA.EmitNotePress("C", 4, 0.8)

	select {
	case press := <-remotePresses:
		assert.Equal(t, "C", press.Note)
		assert.Equal(t, 4, press.Octave)
		assert.Equal(t, 0.8, press.Velocity)
		assert.Equal(t, selfA.ID, press.UserID)
		assert.Equal(t, selfA.Color, press.Color)
	case <-time.After(5 * time.Second):
		t.Fatal("client B never received the remote press")
	}

	assert.Zero(t, selfEcho, "client A must not hear its own press")
}
