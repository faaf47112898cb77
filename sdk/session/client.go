// Package session is the Go client for the tapejam relay: it owns a
// single logical connection, exposes typed emit and subscribe
// operations, and hides reconnection behind a bounded fixed-delay
// policy.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tapejam/tapejam/protocol"
)

// ErrReconnectExhausted is carried by the final state transition after
// the reconnect budget runs out.
var ErrReconnectExhausted = errors.New("session: reconnect attempts exhausted")

// Client is the connection manager. Construct with NewClient; the
// zero value is not usable.
type Client struct {
	cfg        Config
	logger     *zap.Logger
	dispatcher dispatcher

	onState func(StateEvent)

	mu      sync.Mutex
	state   ConnectionState
	conn    *websocket.Conn
	writeCh chan []byte
	cancel  context.CancelFunc
	done    chan struct{}
	selfID  string
}

// NewClient constructs a client from cfg. Pass nil for a silent
// logger.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{cfg: cfg, logger: logger}
	c.dispatcher.logger = logger
	return c
}

// Handler registration is not synchronized with a live session: every
// OnX setter must be called before Connect.

// OnRemoteNotePress registers the handler for other users' presses.
// Must be called before Connect.
func (c *Client) OnRemoteNotePress(fn func(protocol.RemoteNotePress)) {
	c.dispatcher.onRemotePress = fn
}

// OnRemoteNoteRelease registers the handler for other users' releases.
// Must be called before Connect.
func (c *Client) OnRemoteNoteRelease(fn func(protocol.RemoteNoteRelease)) {
	c.dispatcher.onRemoteRelease = fn
}

// OnUserInfo registers the handler for this connection's assigned
// identity. Must be called before Connect.
func (c *Client) OnUserInfo(fn func(protocol.UserInfo)) {
	c.dispatcher.onUserInfo = fn
}

// OnUserPresence registers the handler for roster snapshots. Must be
// called before Connect.
func (c *Client) OnUserPresence(fn func([]protocol.UserInfo)) {
	c.dispatcher.onPresence = fn
}

// OnStateChange registers the handler for connection state
// transitions. Must be called before Connect.
func (c *Client) OnStateChange(fn func(StateEvent)) {
	c.onState = fn
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SelfID returns the connection id the relay assigned, empty until
// userInfo arrives.
func (c *Client) SelfID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selfID
}

// Connect starts the connection. Calling it while a connection is
// active or being attempted is a no-op. Connection establishment and
// all reconnects happen on a background goroutine; progress is
// reported through OnStateChange.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		c.logger.Debug("connect ignored, session already active")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = StateConnecting
	done := c.done
	c.mu.Unlock()

	c.fireState(StateDisconnected, StateConnecting, nil)
	go c.run(ctx, done)
}

// Disconnect tears the connection down and waits for the background
// session to stop. Pending reconnect attempts are cancelled; local
// note playback is unaffected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel, conn, done := c.cancel, c.conn, c.done
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if conn != nil {
		conn.Close()
	}
	if done != nil {
		<-done
	}
}

// EmitNotePress sends a press to the relay. Dropped silently when not
// connected; a stale press replayed later would be musically
// meaningless, so nothing is queued.
func (c *Client) EmitNotePress(note string, octave int, velocity float64) {
	c.emit(protocol.EventNotePress, protocol.NotePress{
		Note:     note,
		Octave:   octave,
		Velocity: velocity,
	})
}

// EmitNoteRelease sends a release to the relay. Dropped when not
// connected.
func (c *Client) EmitNoteRelease(note string, octave int) {
	c.emit(protocol.EventNoteRelease, protocol.NoteRelease{
		Note:   note,
		Octave: octave,
	})
}

func (c *Client) emit(event string, payload any) {
	c.mu.Lock()
	state, writeCh := c.state, c.writeCh
	c.mu.Unlock()
	if state != StateConnected || writeCh == nil {
		c.logger.Debug("emit dropped, not connected", zap.String("event", event))
		return
	}

	env, err := protocol.NewEnvelope(event, payload)
	if err != nil {
		c.logger.Error("emit failed", zap.String("event", event), zap.Error(err))
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		c.logger.Error("emit failed", zap.String("event", event), zap.Error(err))
		return
	}
	select {
	case writeCh <- data:
	default:
		c.logger.Warn("emit dropped, write buffer full", zap.String("event", event))
	}
}

// run is the session goroutine: dial, serve until the transport drops,
// reconnect within budget, repeat.
func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		conn, err := c.establish(ctx)
		if conn == nil {
			c.finish(err)
			return
		}

		c.setState(StateConnected, nil)
		serveErr := c.serve(ctx, conn)
		if ctx.Err() != nil {
			c.finish(nil)
			return
		}
		c.logger.Warn("connection lost, reconnecting", zap.Error(serveErr))
		c.setState(StateConnecting, serveErr)

		select {
		case <-time.After(c.cfg.ReconnectDelay):
		case <-ctx.Done():
			c.finish(nil)
			return
		}
	}
}

// establish dials until it succeeds or the attempt budget is spent,
// with the configured fixed delay between attempts.
func (c *Client) establish(ctx context.Context) (*websocket.Conn, error) {
	attempts := c.cfg.MaxReconnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
		conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, nil
		}
		c.logger.Warn("dial failed",
			zap.String("url", c.cfg.URL),
			zap.Int("attempt", attempt),
			zap.Int("budget", attempts),
			zap.Error(err))
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(c.cfg.ReconnectDelay):
		case <-ctx.Done():
			return nil, nil
		}
	}
	if lastErr != nil {
		return nil, ErrReconnectExhausted
	}
	return nil, nil
}

// serve pumps one established connection until it fails or ctx is
// cancelled.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	writeCh := make(chan []byte, 16)
	c.mu.Lock()
	c.conn = conn
	c.writeCh = writeCh
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.writeCh = nil
		c.mu.Unlock()
		conn.Close()
	}()

	writeDone := make(chan error, 1)
	stopWriter := make(chan struct{})
	go func() {
		writeDone <- c.writeLoop(conn, writeCh, stopWriter)
	}()

	readDone := make(chan error, 1)
	go func() {
		readDone <- c.readLoop(conn)
	}()

	var err error
	select {
	case err = <-readDone:
	case err = <-writeDone:
	case <-ctx.Done():
		err = ctx.Err()
	}
	conn.Close()
	close(stopWriter)
	return err
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		var env protocol.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}
		if env.Event == protocol.EventUserInfo {
			var info protocol.UserInfo
			if err := json.Unmarshal(env.Data, &info); err == nil {
				c.mu.Lock()
				c.selfID = info.ID
				c.mu.Unlock()
			}
		}
		c.dispatcher.dispatch(env)
	}
}

func (c *Client) writeLoop(conn *websocket.Conn, writeCh chan []byte, stop chan struct{}) error {
	for {
		select {
		case data := <-writeCh:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
		case <-stop:
			return nil
		}
	}
}

// finish settles the session in Disconnected. err is non-nil only when
// the reconnect budget was exhausted.
func (c *Client) finish(err error) {
	c.mu.Lock()
	c.cancel = nil
	c.mu.Unlock()
	c.setState(StateDisconnected, err)
	if err != nil {
		c.logger.Warn("session failed", zap.Error(err))
	}
}

func (c *Client) setState(next ConnectionState, err error) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()
	if prev != next {
		c.fireState(prev, next, err)
	}
}

func (c *Client) fireState(prev, next ConnectionState, err error) {
	if c.onState != nil {
		c.onState(StateEvent{Old: prev, New: next, Err: err})
	}
}
