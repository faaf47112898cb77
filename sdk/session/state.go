package session

// ConnectionState is the client's view of its relay connection.
type ConnectionState int

const (
	// StateDisconnected means no connection exists and none is being
	// attempted. Reached on explicit disconnect or once the reconnect
	// budget is exhausted.
	StateDisconnected ConnectionState = iota

	// StateConnecting means a connection attempt (initial or
	// reconnect) is in flight.
	StateConnecting

	// StateConnected means events flow.
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// StateEvent describes one state transition.
type StateEvent struct {
	Old ConnectionState
	New ConnectionState
	// Err carries the transport error that caused the transition,
	// when there was one.
	Err error
}
