package session

import "time"

// Config controls how the client connects to the relay.
type Config struct {
	// URL is the websocket endpoint of the relay, e.g.
	// "ws://localhost:8080/ws".
	URL string

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration

	// ReconnectDelay is the fixed wait between connection attempts.
	ReconnectDelay time.Duration
	// MaxReconnectAttempts bounds consecutive failed attempts. Once
	// exceeded the client settles in Disconnected until Connect is
	// called again.
	MaxReconnectAttempts int
}

// DefaultConfig returns sensible defaults. Set URL before use.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:     10 * time.Second,
		WriteTimeout:         10 * time.Second,
		ReconnectDelay:       2 * time.Second,
		MaxReconnectAttempts: 5,
	}
}
